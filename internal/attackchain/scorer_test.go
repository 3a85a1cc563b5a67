package attackchain

import (
	"reflect"
	"testing"
)

func mkSequence(name string, severity int, stage Stage, techniques ...string) *Sequence {
	return &Sequence{
		PatternName: name,
		Severity:    severity,
		Techniques:  techniques,
		Stage:       stage,
	}
}

func TestRiskLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{100, RiskCritical},
		{90, RiskCritical},
		{89, RiskHigh},
		{70, RiskHigh},
		{69, RiskMedium},
		{50, RiskMedium},
		{49, RiskLow},
		{0, RiskLow},
	}
	for _, tt := range tests {
		if got := RiskLevelForScore(tt.score); got != tt.want {
			t.Errorf("RiskLevelForScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScorer_Baseline(t *testing.T) {
	got := NewScorer(DefaultScoringPolicy()).Assess(nil, nil, false)

	if got.SeverityScore != 30 {
		t.Errorf("SeverityScore = %d, want baseline 30", got.SeverityScore)
	}
	if got.RiskLevel != RiskLow {
		t.Errorf("RiskLevel = %q, want LOW", got.RiskLevel)
	}
	if got.AttackStage != StageInitial {
		t.Errorf("AttackStage = %q, want Initial", got.AttackStage)
	}
	if got.AttackSucceeded {
		t.Error("AttackSucceeded = true with no sequences")
	}
	if got.SafetyImpact.Level != SafetyNone {
		t.Errorf("SafetyImpact.Level = %q, want None", got.SafetyImpact.Level)
	}
}

func TestScorer_SeverityScore(t *testing.T) {
	scorer := NewScorer(DefaultScoringPolicy())
	lateral := mkSequence("lateral_movement_detected", 82, StageMid, "T1078", "T1021")
	plc := mkSequence("plc_compromise", 95, StageImpact, "T0843", "T0836")
	brute := mkSequence("brute_force_success", 80, StageMid, "T1110", "T1078")

	tests := []struct {
		name       string
		sequences  []*Sequence
		techniques []string
		isOT       bool
		want       int
	}{
		{
			name: "no signal", want: 30,
		},
		{
			// Diversity alone: 30 + 3*5.
			name:       "techniques without sequences",
			techniques: []string{"T1046", "T1110", "T1021"},
			want:       45,
		},
		{
			// Diversity is capped at 25 and duplicates do not count.
			name:       "diversity cap",
			techniques: []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7", "T1"},
			want:       55,
		},
		{
			// Non-success sequence: base becomes the sequence severity.
			name:      "single lateral movement",
			sequences: []*Sequence{lateral},
			want:      82,
		},
		{
			name:      "lateral movement in OT environment",
			sequences: []*Sequence{lateral},
			isOT:      true,
			want:      92,
		},
		{
			// 95 base + safety bonus 20 + impact bonus 25, capped.
			name:      "plc compromise caps at 100",
			sequences: []*Sequence{lateral, plc},
			want:      100,
		},
		{
			// 80 base + success 30, capped.
			name:      "confirmed success caps",
			sequences: []*Sequence{brute},
			want:      100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Assess(tt.sequences, tt.techniques, tt.isOT)
			if got.SeverityScore != tt.want {
				t.Errorf("SeverityScore = %d, want %d", got.SeverityScore, tt.want)
			}
		})
	}
}

func TestScorer_ScoreNeverDecreasesWithMoreEvidence(t *testing.T) {
	scorer := NewScorer(DefaultScoringPolicy())
	lateral := mkSequence("lateral_movement_detected", 82, StageMid, "T1078", "T1021")
	plc := mkSequence("plc_compromise", 95, StageImpact, "T0843", "T0836")

	base := scorer.Assess([]*Sequence{lateral}, nil, false).SeverityScore
	more := scorer.Assess([]*Sequence{lateral, plc}, nil, false).SeverityScore
	if more < base {
		t.Errorf("score dropped from %d to %d after adding an impact sequence", base, more)
	}
}

func TestScorer_AttackSucceeded(t *testing.T) {
	scorer := NewScorer(DefaultScoringPolicy())

	success := scorer.Assess([]*Sequence{
		mkSequence("persistence_established", 85, StageLate, "T1078", "T1136"),
	}, nil, false)
	if !success.AttackSucceeded {
		t.Error("persistence_established should confirm success")
	}

	observed := scorer.Assess([]*Sequence{
		mkSequence("lateral_movement_detected", 82, StageMid, "T1078", "T1021"),
	}, nil, false)
	if observed.AttackSucceeded {
		t.Error("lateral movement alone should not confirm success")
	}
}

func TestScorer_AttackStage(t *testing.T) {
	scorer := NewScorer(DefaultScoringPolicy())

	tests := []struct {
		name       string
		sequences  []*Sequence
		techniques []string
		want       Stage
	}{
		{
			name:       "impact technique wins outright",
			sequences:  []*Sequence{mkSequence("lateral_movement_detected", 82, StageMid, "T1078")},
			techniques: []string{"T0878"},
			want:       StageImpact,
		},
		{
			name:      "highest severity sequence stage",
			sequences: []*Sequence{mkSequence("persistence_established", 85, StageLate, "T1078", "T1136")},
			want:      StageLate,
		},
		{
			name:       "persistence techniques few unique",
			techniques: []string{"T1136"},
			want:       StageMid,
		},
		{
			name:       "persistence techniques broad footprint",
			techniques: []string{"T1136", "T1110", "T1021", "T1046"},
			want:       StageLate,
		},
		{
			name:       "movement techniques",
			techniques: []string{"T1021"},
			want:       StageMid,
		},
		{
			name:       "initial techniques only",
			techniques: []string{"T1110"},
			want:       StageInitial,
		},
		{
			name:       "initial techniques with confirmed brute force",
			sequences:  []*Sequence{mkSequence("brute_force_success", 80, "", "T1110")},
			techniques: []string{"T1110"},
			want:       StageMid,
		},
		{
			name: "nothing observed",
			want: StageInitial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Assess(tt.sequences, tt.techniques, false)
			if got.AttackStage != tt.want {
				t.Errorf("AttackStage = %q, want %q", got.AttackStage, tt.want)
			}
		})
	}
}

func TestScorer_AssessIsIdempotent(t *testing.T) {
	scorer := NewScorer(DefaultScoringPolicy())
	sequences := []*Sequence{
		mkSequence("plc_compromise", 95, StageImpact, "T0843", "T0836"),
		mkSequence("brute_force_success", 80, StageMid, "T1110", "T1078"),
	}
	techniques := []string{"T1110", "T1078", "T0843", "T0836"}

	first := scorer.Assess(sequences, techniques, true)
	second := scorer.Assess(sequences, techniques, true)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Assess calls disagree:\n%+v\n%+v", first, second)
	}
}
