package attackchain

import (
	"log/slog"

	"otwatch/internal/schema"
)

// Analyzer is the package façade: it matches the catalog against a
// chronological event list and scores the result. Stateless and safe
// for concurrent use.
type Analyzer struct {
	matcher *Matcher
	scorer  *Scorer
}

// NewAnalyzer wires a matcher over the catalog to a scorer with the
// given policy.
func NewAnalyzer(catalog *Catalog, policy ScoringPolicy) *Analyzer {
	return &Analyzer{
		matcher: NewMatcher(catalog),
		scorer:  NewScorer(policy),
	}
}

// DefaultAnalyzer returns an analyzer over the builtin catalog with
// the default scoring policy.
func DefaultAnalyzer() *Analyzer {
	return NewAnalyzer(BuiltinCatalog(), DefaultScoringPolicy())
}

// Analyze matches every catalog pattern against the events (sorted
// ascending by timestamp by the caller) and computes the aggregate
// assessment. The scorer sees the union of the caller-supplied
// technique identifiers and those referenced by matched sequences.
func (a *Analyzer) Analyze(events []*schema.Event, techniques []string, isOT bool) ([]*Sequence, Assessment) {
	slog.Info("analyzing attack chain",
		"events", len(events),
		"techniques", len(techniques),
		"ot_environment", isOT)

	sequences := a.matcher.Match(events)

	union := make([]string, 0, len(techniques))
	union = append(union, techniques...)
	for _, seq := range sequences {
		union = append(union, seq.Techniques...)
	}

	assessment := a.scorer.Assess(sequences, uniqueTechniques(union), isOT)
	return sequences, assessment
}
