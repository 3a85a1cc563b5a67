package attackchain

import "log/slog"

// RiskLevel is the aggregate risk classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Assessment is the aggregate risk verdict for one detection run. It
// is a pure function of the matched sequences and observed technique
// identifiers, recomputed on every call and never mutated in place.
type Assessment struct {
	SeverityScore   int          `json:"severity_score"`
	RiskLevel       RiskLevel    `json:"risk_level"`
	AttackStage     Stage        `json:"attack_stage"`
	AttackSucceeded bool         `json:"attack_succeeded"`
	SafetyImpact    SafetyImpact `json:"safety_impact"`
}

// techniqueSet is a membership table over technique identifiers.
type techniqueSet map[string]bool

func (s techniqueSet) anyOf(techniques []string) bool {
	for _, t := range techniques {
		if s[t] {
			return true
		}
	}
	return false
}

// ScoringPolicy is the declarative scoring configuration: which
// pattern names confirm success or physical impact, and which
// technique identifiers belong to each progression category.
type ScoringPolicy struct {
	// Pattern names whose detection confirms a successful compromise.
	SuccessPatterns map[string]bool
	// Pattern names whose detection confirms physical-process impact.
	ImpactPatterns map[string]bool

	// Technique categories used for bonuses and stage determination.
	ImpactTechniques      techniqueSet
	PersistenceTechniques techniqueSet
	MovementTechniques    techniqueSet
	InitialTechniques     techniqueSet
	SafetyTechniques      techniqueSet

	// Additive scoring weights, each clamped so the running total
	// never exceeds 100.
	BaselineScore    int
	SuccessBonus     int
	DiversityPerID   int
	DiversityCap     int
	PersistenceBonus int
	SafetyBonus      int
	ImpactBonus      int
	OTBoost          int
}

// DefaultScoringPolicy returns the fixed scoring tables.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		SuccessPatterns: map[string]bool{
			"brute_force_success":     true,
			"persistence_established": true,
			"complete_ot_breach":      true,
		},
		ImpactPatterns: map[string]bool{
			"plc_compromise":     true,
			"complete_ot_breach": true,
			"ot_safety_bypass":   true,
		},
		ImpactTechniques: techniqueSet{
			"T1489": true, "T0880": true, "T0813": true, "T0831": true,
			"T0816": true, "T0836": true, "T0878": true, "T1486": true,
		},
		PersistenceTechniques: techniqueSet{
			"T1136": true, "T1053": true, "T0839": true, "T1543": true, "T1098": true,
		},
		MovementTechniques: techniqueSet{
			"T1021": true, "T1078": true, "T1068": true, "T0886": true,
		},
		InitialTechniques: techniqueSet{
			"T1110": true, "T1190": true, "T1566": true, "T1046": true, "T0840": true,
		},
		SafetyTechniques: techniqueSet{
			"T0878": true, "T0836": true,
		},
		BaselineScore:    30,
		SuccessBonus:     30,
		DiversityPerID:   5,
		DiversityCap:     25,
		PersistenceBonus: 15,
		SafetyBonus:      20,
		ImpactBonus:      25,
		OTBoost:          10,
	}
}

// Scorer combines matched sequences and observed techniques into a
// risk assessment. It is stateless; concurrent Assess calls are
// independent.
type Scorer struct {
	policy ScoringPolicy
}

// NewScorer creates a scorer with the given policy.
func NewScorer(policy ScoringPolicy) *Scorer {
	return &Scorer{policy: policy}
}

// Assess computes the aggregate verdict for a set of matched sequences
// and the union of observed technique identifiers. Unknown technique
// identifiers still count toward diversity but never toward the
// safety-impact table.
func (s *Scorer) Assess(sequences []*Sequence, techniques []string, isOT bool) Assessment {
	assessment := Assessment{
		SeverityScore:   s.severityScore(sequences, techniques, isOT),
		AttackStage:     s.attackStage(sequences, techniques),
		AttackSucceeded: s.attackSucceeded(sequences),
		SafetyImpact:    AssessSafetyImpact(techniques),
	}
	assessment.RiskLevel = RiskLevelForScore(assessment.SeverityScore)

	slog.Info("risk assessment computed",
		"severity_score", assessment.SeverityScore,
		"risk_level", string(assessment.RiskLevel),
		"attack_stage", string(assessment.AttackStage),
		"attack_succeeded", assessment.AttackSucceeded,
		"sequences", len(sequences),
		"techniques", len(techniques))
	return assessment
}

func (s *Scorer) attackSucceeded(sequences []*Sequence) bool {
	for _, seq := range sequences {
		if s.policy.SuccessPatterns[seq.PatternName] {
			return true
		}
	}
	return false
}

func (s *Scorer) physicalImpact(sequences []*Sequence) bool {
	for _, seq := range sequences {
		if s.policy.ImpactPatterns[seq.PatternName] {
			return true
		}
	}
	return false
}

// severityScore applies the additive scoring ladder with a 100 cap at
// every increment.
func (s *Scorer) severityScore(sequences []*Sequence, techniques []string, isOT bool) int {
	p := s.policy

	score := p.BaselineScore
	if seq := highestSeverity(sequences); seq != nil {
		score = seq.Severity
	}

	if s.attackSucceeded(sequences) {
		score = capAdd(score, p.SuccessBonus)
	}

	diversity := len(uniqueTechniques(techniques)) * p.DiversityPerID
	if diversity > p.DiversityCap {
		diversity = p.DiversityCap
	}
	score = capAdd(score, diversity)

	if anySequence(sequences, p.PersistenceTechniques) {
		score = capAdd(score, p.PersistenceBonus)
	}
	if anySequence(sequences, p.SafetyTechniques) {
		score = capAdd(score, p.SafetyBonus)
	}
	if s.physicalImpact(sequences) {
		score = capAdd(score, p.ImpactBonus)
	}
	if isOT {
		score = capAdd(score, p.OTBoost)
	}

	return score
}

// attackStage walks the priority ladder: impact techniques first, then
// the highest-severity sequence's stage label, then technique-set
// membership.
func (s *Scorer) attackStage(sequences []*Sequence, techniques []string) Stage {
	p := s.policy

	if p.ImpactTechniques.anyOf(techniques) {
		return StageImpact
	}

	if seq := highestSeverity(sequences); seq != nil && seq.Stage != "" {
		return seq.Stage
	}

	unique := uniqueTechniques(techniques)
	if p.PersistenceTechniques.anyOf(techniques) {
		if len(unique) > 3 {
			return StageLate
		}
		return StageMid
	}
	if p.MovementTechniques.anyOf(techniques) {
		return StageMid
	}
	if p.InitialTechniques.anyOf(techniques) {
		for _, seq := range sequences {
			if seq.PatternName == "brute_force_success" {
				return StageMid
			}
		}
		return StageInitial
	}

	return StageInitial
}

// RiskLevelForScore maps a severity score to its risk level.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= 90:
		return RiskCritical
	case score >= 70:
		return RiskHigh
	case score >= 50:
		return RiskMedium
	default:
		return RiskLow
	}
}

func highestSeverity(sequences []*Sequence) *Sequence {
	var best *Sequence
	for _, seq := range sequences {
		if best == nil || seq.Severity > best.Severity {
			best = seq
		}
	}
	return best
}

func anySequence(sequences []*Sequence, set techniqueSet) bool {
	for _, seq := range sequences {
		if set.anyOf(seq.Techniques) {
			return true
		}
	}
	return false
}

func uniqueTechniques(techniques []string) []string {
	seen := make(map[string]bool, len(techniques))
	unique := make([]string, 0, len(techniques))
	for _, t := range techniques {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}
	return unique
}

func capAdd(score, bonus int) int {
	score += bonus
	if score > 100 {
		return 100
	}
	return score
}
