package attackchain

import "testing"

func TestAssessSafetyImpact(t *testing.T) {
	tests := []struct {
		name          string
		techniques    []string
		wantLevel     SafetyLevel
		wantPhysical  bool
		wantPersonnel bool
		wantImpacts   int
	}{
		{
			name:       "no techniques",
			techniques: nil,
			wantLevel:  SafetyNone,
		},
		{
			name:       "only IT techniques",
			techniques: []string{"T1110", "T1078"},
			wantLevel:  SafetyNone,
		},
		{
			name:          "alarm suppression",
			techniques:    []string{"T0878"},
			wantLevel:     SafetyCritical,
			wantPhysical:  true,
			wantPersonnel: true,
			wantImpacts:   1,
		},
		{
			name:         "program download",
			techniques:   []string{"T0843"},
			wantLevel:    SafetyHigh,
			wantPhysical: true,
			wantImpacts:  1,
		},
		{
			name:        "view manipulation",
			techniques:  []string{"T0832"},
			wantLevel:   SafetyMedium,
			wantImpacts: 1,
		},
		{
			name:          "escalates and never downgrades",
			techniques:    []string{"T0832", "T0880", "T0843"},
			wantLevel:     SafetyCritical,
			wantPhysical:  true,
			wantPersonnel: true,
			wantImpacts:   3,
		},
		{
			name:          "duplicates recorded once",
			techniques:    []string{"T0878", "T0878", "T1110"},
			wantLevel:     SafetyCritical,
			wantPhysical:  true,
			wantPersonnel: true,
			wantImpacts:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessSafetyImpact(tt.techniques)
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", got.Level, tt.wantLevel)
			}
			if got.PhysicalDamageRisk != tt.wantPhysical {
				t.Errorf("PhysicalDamageRisk = %v, want %v", got.PhysicalDamageRisk, tt.wantPhysical)
			}
			if got.PersonnelSafetyRisk != tt.wantPersonnel {
				t.Errorf("PersonnelSafetyRisk = %v, want %v", got.PersonnelSafetyRisk, tt.wantPersonnel)
			}
			if len(got.Impacts) != tt.wantImpacts {
				t.Errorf("Impacts = %d entries, want %d", len(got.Impacts), tt.wantImpacts)
			}
		})
	}
}

func TestSafetyLevel_Rank(t *testing.T) {
	ordered := []SafetyLevel{SafetyNone, SafetyMedium, SafetyHigh, SafetyCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].rank() <= ordered[i-1].rank() {
			t.Errorf("rank(%q) should exceed rank(%q)", ordered[i], ordered[i-1])
		}
	}
}
