// Package mitre maps free-text log messages to MITRE ATT&CK and
// ATT&CK for ICS technique identifiers. The mapping is a static
// pattern table loaded once at startup; the resulting identifiers feed
// the attack-chain risk scorer.
package mitre

import (
	"fmt"
	"regexp"

	"otwatch/internal/schema"
)

// Technique is one ATT&CK technique reference.
type Technique struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tactic string `json:"tactic"`
}

// mappingRule pairs a compiled message predicate with the technique it
// indicates.
type mappingRule struct {
	re        *regexp.Regexp
	technique Technique
}

// Mapper scans messages against the pattern table. Immutable after
// construction and safe for concurrent use.
type Mapper struct {
	rules []mappingRule
}

// rawRule is one uncompiled table row.
type rawRule struct {
	pattern   string
	technique Technique
}

// builtinRules is the static pattern-to-technique table covering
// enterprise and ICS techniques.
var builtinRules = []rawRule{
	// Authentication and access
	{`(failed|unsuccessful|invalid).*login|authentication.*fail`, Technique{"T1110", "Brute Force", "Credential Access"}},
	{`(successful|accepted).*login`, Technique{"T1078", "Valid Accounts", "Initial Access"}},
	{`(user|account).*(created|added|new)|backdoor.*(account|user)`, Technique{"T1136", "Create Account", "Persistence"}},
	{`privilege.*escalat`, Technique{"T1068", "Exploitation for Privilege Escalation", "Privilege Escalation"}},

	// Lateral movement
	{`(rdp|remote desktop).*connect`, Technique{"T1021.001", "Remote Desktop Protocol", "Lateral Movement"}},
	{`(smb|cifs|samba).*access`, Technique{"T1021.002", "SMB/Windows Admin Shares", "Lateral Movement"}},

	// Persistence
	{`(service|daemon).*(created|installed|added)`, Technique{"T1543", "Create or Modify System Process", "Persistence"}},
	{`scheduled.*task.*created`, Technique{"T1053", "Scheduled Task/Job", "Persistence"}},

	// Impact
	{`(service|process).*(stop|kill|terminate)`, Technique{"T1489", "Service Stop", "Impact"}},
	{`(delete|remove|wipe).*file`, Technique{"T1485", "Data Destruction", "Impact"}},
	{`encrypt.*file`, Technique{"T1486", "Data Encrypted for Impact", "Impact"}},

	// ICS/OT techniques
	{`plc.*(write|program|upload|download)|(ladder|logic).*modif`, Technique{"T0843", "Program Download", "Execution (ICS)"}},
	{`(alarm|alert).*(disable|suppress|silence|mute)|(safety|interlock).*(bypass|override|disable)`, Technique{"T0878", "Alarm Suppression", "Inhibit Response Function (ICS)"}},
	{`(setpoint|parameter).*(change|modif|alter|force)`, Technique{"T0836", "Modify Parameter", "Impair Process Control (ICS)"}},
	{`(scada|hmi|dcs).*(access|login|connect)`, Technique{"T0886", "Remote Services", "Lateral Movement (ICS)"}},
	{`(controller|plc|rtu).*(command|control)|(modbus|dnp3|profinet|opcua).*(inject|manipulate|spoof)`, Technique{"T0855", "Unauthorized Command Message", "Impair Process Control (ICS)"}},
	{`firmware.*(upload|download|modif|flash)`, Technique{"T0857", "System Firmware", "Inhibit Response Function (ICS)"}},
	{`(reactor|turbine|generator|pump|valve).*(shutdown|stop|fail|trip)|(emergency.*shutdown|e-?stop|scram).*(fail|block|disable)`, Technique{"T0816", "Device Restart/Shutdown", "Impact (ICS)"}},
	{`(sensor|transducer|transmitter).*(spoof|manipulate|false)|(hmi.*screen|operator.*display).*(modify|manipulate|fake)`, Technique{"T0832", "Manipulation of View", "Impact (ICS)"}},
	{`(default.*credential|default.*password)`, Technique{"T0812", "Default Credentials", "Initial Access (ICS)"}},

	// Exfiltration
	{`(data|file|document).*(transfer|exfil|upload|send)`, Technique{"T1041", "Exfiltration Over C2 Channel", "Exfiltration"}},

	// Defense evasion
	{`(log|audit).*(clear|delete|wipe|disable)`, Technique{"T1070", "Indicator Removal", "Defense Evasion"}},
	{`(antivirus|firewall|security).*(disable|stop|bypass)`, Technique{"T1562", "Impair Defenses", "Defense Evasion"}},

	// Discovery and initial access
	{`(network|port).*scan`, Technique{"T1046", "Network Service Scanning", "Discovery"}},
	{`(scan|enumerate|discover|reconnaissance)`, Technique{"T0840", "Network Connection Enumeration", "Discovery (ICS)"}},
	{`(exploit|vulnerability|cve-)`, Technique{"T1190", "Exploit Public-Facing Application", "Initial Access"}},
}

// NewMapper compiles the builtin pattern table. A pattern that fails
// to compile is a fatal configuration error.
func NewMapper() (*Mapper, error) {
	m := &Mapper{rules: make([]mappingRule, 0, len(builtinRules))}
	for _, raw := range builtinRules {
		re, err := regexp.Compile("(?i)" + raw.pattern)
		if err != nil {
			return nil, fmt.Errorf("technique pattern %q: %w", raw.pattern, err)
		}
		m.rules = append(m.rules, mappingRule{re: re, technique: raw.technique})
	}
	return m, nil
}

// MapMessage returns every technique whose pattern matches the
// message, in table order without duplicates.
func (m *Mapper) MapMessage(message string) []Technique {
	var matched []Technique
	seen := make(map[string]bool)
	for _, rule := range m.rules {
		if seen[rule.technique.ID] {
			continue
		}
		if rule.re.MatchString(message) {
			seen[rule.technique.ID] = true
			matched = append(matched, rule.technique)
		}
	}
	return matched
}

// MapEvents returns the unique technique identifiers observed across
// the batch, in first-seen order.
func (m *Mapper) MapEvents(events []*schema.Event) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, event := range events {
		for _, t := range m.MapMessage(event.Message) {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			ids = append(ids, t.ID)
		}
	}
	return ids
}
