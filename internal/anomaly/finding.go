// Package anomaly provides statistical anomaly detection over batches
// of normalized log events. Three independent detectors (multivariate
// outlier, rare message, rate spike) produce scored findings that are
// merged into a single ranked list.
package anomaly

import (
	"github.com/google/uuid"
)

// DetectorType identifies which detector produced a finding.
type DetectorType string

const (
	DetectorOutlier     DetectorType = "outlier"
	DetectorRareMessage DetectorType = "rare_message"
	DetectorSpike       DetectorType = "spike"
)

// Severity classifies a finding by its numeric score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Finding is a scored, single-event output of a statistical detector.
// Findings are produced fresh on each detection run and are not
// persisted by this package.
type Finding struct {
	EventID     uuid.UUID    `json:"event_id"`
	Type        DetectorType `json:"detector_type"`
	Score       float64      `json:"score"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
}

// SeverityForScore maps a 0-100 score to its severity bucket.
func SeverityForScore(score float64) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// clampScore bounds a score to the [0, 100] range every detector must
// honor.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
