package attackchain

import "time"

// BuiltinCatalog returns the built-in attack pattern catalog: an
// escalating ladder from credential attacks through full OT/SCADA
// compromise with physical-process impact.
func BuiltinCatalog() *Catalog {
	catalog, err := NewCatalog([]*Pattern{
		BruteForceSuccessPattern(),
		PersistenceEstablishedPattern(),
		PrivilegeEscalationChainPattern(),
		OTSafetyBypassPattern(),
		PLCCompromisePattern(),
		CompleteOTBreachPattern(),
		LateralMovementPattern(),
		DataExfiltrationPattern(),
		CommandAndControlPattern(),
		DefenseEvasionPattern(),
	})
	if err != nil {
		// Builtin patterns are fixed at compile time; a failure here is
		// a programming error.
		panic(err)
	}
	return catalog
}

// BruteForceSuccessPattern detects repeated failed authentication
// followed by a success: the attacker gained access.
func BruteForceSuccessPattern() *Pattern {
	return &Pattern{
		Name:        "brute_force_success",
		Description: "Brute force attack succeeded - attacker gained access",
		Steps: []*Step{
			{Name: "failed_logins", Pattern: `(failed|unsuccessful|invalid).*login|authentication.*fail`, MinCount: 3},
			{Name: "successful_login", Pattern: `(successful|accepted).*login|authentication.*success`, MinCount: 1, MaxGap: 10 * time.Minute},
		},
		Severity:   80,
		Techniques: []string{"T1110", "T1078"},
		Stage:      StageMid,
	}
}

// PersistenceEstablishedPattern detects account creation shortly after
// a successful login.
func PersistenceEstablishedPattern() *Pattern {
	return &Pattern{
		Name:        "persistence_established",
		Description: "Attacker established persistence via new account",
		Steps: []*Step{
			{Name: "initial_access", Pattern: `(successful|accepted).*login`, MinCount: 1},
			{Name: "account_creation", Pattern: `(user|account).*(created|added|new)|backdoor.*user`, MinCount: 1, MaxGap: 30 * time.Minute},
		},
		Severity:   85,
		Techniques: []string{"T1078", "T1136"},
		Stage:      StageLate,
	}
}

// PrivilegeEscalationChainPattern detects privilege grants after
// initial access.
func PrivilegeEscalationChainPattern() *Pattern {
	return &Pattern{
		Name:        "privilege_escalation_chain",
		Description: "Attacker escalated privileges after initial access",
		Steps: []*Step{
			{Name: "initial_access", Pattern: `(successful|accepted).*login`, MinCount: 1},
			{Name: "privilege_escalation", Pattern: `privilege.*(grant|escalat)|admin.*added|sudo.*grant`, MinCount: 1, MaxGap: 30 * time.Minute},
		},
		Severity:   88,
		Techniques: []string{"T1078", "T1068", "T1098"},
		Stage:      StageLate,
	}
}

// OTSafetyBypassPattern detects safety or alarm suppression following
// a configuration change.
func OTSafetyBypassPattern() *Pattern {
	return &Pattern{
		Name:        "ot_safety_bypass",
		Description: "CRITICAL: Safety systems compromised in OT environment",
		Steps: []*Step{
			{Name: "config_change", Pattern: `(config|parameter).*(change|modif)`, MinCount: 1},
			{Name: "safety_bypass", Pattern: `(alarm|safety).*(suppress|override|disable|bypass)|interlock.*bypass`, MinCount: 1, MaxGap: 30 * time.Minute},
		},
		Severity:   95,
		Techniques: []string{"T0836", "T0878"},
		Stage:      StageImpact,
	}
}

// PLCCompromisePattern detects PLC programming combined with setpoint
// manipulation.
func PLCCompromisePattern() *Pattern {
	return &Pattern{
		Name:        "plc_compromise",
		Description: "CRITICAL: PLC control compromised - physical process at risk",
		Steps: []*Step{
			{Name: "plc_programming", Pattern: `plc.*(write|program|upload|download)|ladder.*logic|firmware.*update`, MinCount: 1},
			{Name: "setpoint_modification", Pattern: `setpoint.*(change|modif)|parameter.*(force|alter)`, MinCount: 1, MaxGap: 30 * time.Minute},
		},
		Severity:   95,
		Techniques: []string{"T0843", "T0836"},
		Stage:      StageImpact,
	}
}

// CompleteOTBreachPattern is the maximal chain from credential
// compromise through physical-process manipulation.
func CompleteOTBreachPattern() *Pattern {
	return &Pattern{
		Name:        "complete_ot_breach",
		Description: "CRITICAL: Complete OT/SCADA compromise with physical impact",
		Steps: []*Step{
			{Name: "brute_force", Pattern: `(failed|unsuccessful).*login`, MinCount: 3},
			{Name: "successful_access", Pattern: `(successful|accepted).*login`, MinCount: 1, MaxGap: 10 * time.Minute},
			{Name: "persistence", Pattern: `(user|account).*(created|added)`, MinCount: 1, MaxGap: 30 * time.Minute},
			{Name: "plc_access", Pattern: `plc.*(upload|program|write)|config.*download`, MinCount: 1, MaxGap: time.Hour},
			{Name: "safety_suppression", Pattern: `(alarm|safety).*(suppress|disable)`, MinCount: 1, MaxGap: time.Hour},
			{Name: "process_manipulation", Pattern: `setpoint.*change|parameter.*(force|modif)|emergency.*shutdown`, MinCount: 1, MaxGap: time.Hour},
		},
		Severity:   100,
		Techniques: []string{"T1110", "T1078", "T1136", "T0843", "T0878", "T0836"},
		Stage:      StageImpact,
	}
}

// LateralMovementPattern detects remote-access fan-out after initial
// access.
func LateralMovementPattern() *Pattern {
	return &Pattern{
		Name:        "lateral_movement_detected",
		Description: "Attacker moving laterally across network",
		Steps: []*Step{
			{Name: "initial_access", Pattern: `(successful|accepted).*login`, MinCount: 1},
			{Name: "lateral_movement", Pattern: `(rdp|smb|ssh|remote).*(connect|access|login)`, MinCount: 2, MaxGap: time.Hour},
		},
		Severity:   82,
		Techniques: []string{"T1078", "T1021"},
		Stage:      StageMid,
	}
}

// DataExfiltrationPattern detects outbound data transfer after
// compromise.
func DataExfiltrationPattern() *Pattern {
	return &Pattern{
		Name:        "data_exfiltration",
		Description: "Data exfiltration detected after compromise",
		Steps: []*Step{
			{Name: "initial_access", Pattern: `(successful|accepted).*login`, MinCount: 1},
			{Name: "exfiltration", Pattern: `(data|file).*(transfer|upload|exfil|send)`, MinCount: 1, MaxGap: 2 * time.Hour},
		},
		Severity:   90,
		Techniques: []string{"T1078", "T1041"},
		Stage:      StageImpact,
	}
}

// CommandAndControlPattern detects beaconing after initial access.
func CommandAndControlPattern() *Pattern {
	return &Pattern{
		Name:        "command_and_control",
		Description: "Attacker establishing command and control communication",
		Steps: []*Step{
			{Name: "initial_access", Pattern: `(successful|accepted).*login|initial.access`, MinCount: 1},
			{Name: "c2_traffic", Pattern: `(outbound.connection|beacon|c2|domain.lookup).*(ip|domain|port)`, MinCount: 2, MaxGap: time.Hour},
		},
		Severity:   85,
		Techniques: []string{"T1071", "T1105", "T1095"},
		Stage:      StageMid,
	}
}

// DefenseEvasionPattern detects log tampering or AV shutdown after
// initial access.
func DefenseEvasionPattern() *Pattern {
	return &Pattern{
		Name:        "defense_evasion",
		Description: "Attacker attempting to cover tracks",
		Steps: []*Step{
			{Name: "initial_access", Pattern: `(successful|accepted).*login`, MinCount: 1},
			{Name: "evasion", Pattern: `(log|audit).*(clear|delete|wipe|disable)|antivirus.*(disable|stop)`, MinCount: 1, MaxGap: time.Hour},
		},
		Severity:   87,
		Techniques: []string{"T1078", "T1070", "T1562"},
		Stage:      StageLate,
	}
}
