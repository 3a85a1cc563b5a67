package attackchain

// SafetyLevel classifies the worst-case OT safety consequence.
type SafetyLevel string

const (
	SafetyNone     SafetyLevel = "None"
	SafetyMedium   SafetyLevel = "MEDIUM"
	SafetyHigh     SafetyLevel = "HIGH"
	SafetyCritical SafetyLevel = "CRITICAL"
)

// rank orders safety levels so escalation never downgrades.
func (l SafetyLevel) rank() int {
	switch l {
	case SafetyCritical:
		return 3
	case SafetyHigh:
		return 2
	case SafetyMedium:
		return 1
	}
	return 0
}

// TechniqueImpact explains one safety-critical technique observed in
// the event corpus.
type TechniqueImpact struct {
	TechniqueID string `json:"technique_id"`
	Explanation string `json:"explanation"`
}

// SafetyImpact is the OT/safety verdict for a detection run.
type SafetyImpact struct {
	Level               SafetyLevel       `json:"level"`
	PhysicalDamageRisk  bool              `json:"physical_damage_risk"`
	PersonnelSafetyRisk bool              `json:"personnel_safety_risk"`
	Impacts             []TechniqueImpact `json:"impacts,omitempty"`
}

// safetyEntry is one row of the safety-critical technique table.
type safetyEntry struct {
	explanation string
	level       SafetyLevel
}

// safetyCriticalTechniques maps ATT&CK for ICS technique identifiers
// to their operational consequence. Techniques absent from this table
// carry no safety weight regardless of their other scoring effects.
var safetyCriticalTechniques = map[string]safetyEntry{
	"T0878": {"Alarm Suppression - operators cannot see dangerous conditions", SafetyCritical},
	"T0836": {"Modify Parameter - process outside safe parameters", SafetyCritical},
	"T0880": {"Loss of Safety - safety systems triggered", SafetyCritical},
	"T0843": {"Program Download - control logic compromised", SafetyHigh},
	"T0816": {"Device Restart/Shutdown - production stoppage", SafetyHigh},
	"T0832": {"Manipulation of View - false sensor readings", SafetyMedium},
}

// personnelRiskTechniques are the identifiers whose presence alone
// puts plant personnel at risk.
var personnelRiskTechniques = map[string]bool{
	"T0880": true,
	"T0878": true,
}

// AssessSafetyImpact evaluates the observed technique identifiers
// against the safety-critical table. The level escalates and is never
// downgraded once set; duplicate identifiers are recorded once.
func AssessSafetyImpact(techniques []string) SafetyImpact {
	impact := SafetyImpact{Level: SafetyNone}

	for _, id := range uniqueTechniques(techniques) {
		entry, ok := safetyCriticalTechniques[id]
		if !ok {
			continue
		}

		impact.Impacts = append(impact.Impacts, TechniqueImpact{
			TechniqueID: id,
			Explanation: entry.explanation,
		})
		if entry.level.rank() > impact.Level.rank() {
			impact.Level = entry.level
		}
		if personnelRiskTechniques[id] {
			impact.PersonnelSafetyRisk = true
		}
	}

	impact.PhysicalDamageRisk = impact.Level == SafetyCritical || impact.Level == SafetyHigh
	return impact
}
