package anomaly

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"otwatch/internal/schema"
)

// Method selects a detection technique.
type Method string

const (
	MethodOutlier     Method = "outlier"
	MethodRareMessage Method = "rare_message"
	MethodSpike       Method = "spike"
)

// AllMethods returns every available detection method.
func AllMethods() []Method {
	return []Method{MethodOutlier, MethodRareMessage, MethodSpike}
}

// Config tunes the anomaly detectors.
type Config struct {
	// Contamination is the expected fraction of outliers in a batch.
	Contamination float64
	// RarityPercentile is the frequency percentile at or below which a
	// canonical message form is considered rare.
	RarityPercentile float64
	// SpikeWindow is the fixed bucket size for rate statistics.
	SpikeWindow time.Duration
	// SpikeThreshold is the z-score beyond which a window is a spike.
	SpikeThreshold float64
	// ForestTrees and ForestSampleSize tune the isolation forest.
	ForestTrees      int
	ForestSampleSize int
	// Seed fixes the model RNG so runs over the same batch agree.
	Seed int64
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		Contamination:    0.1,
		RarityPercentile: 5.0,
		SpikeWindow:      5 * time.Minute,
		SpikeThreshold:   3.0,
		ForestTrees:      100,
		ForestSampleSize: 256,
		Seed:             42,
	}
}

// Detector runs the configured detection methods over event batches.
// It is stateless: each Detect call consumes an immutable snapshot of
// events and concurrent calls are fully independent.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given configuration. Zero
// values fall back to defaults.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.Contamination <= 0 {
		cfg.Contamination = def.Contamination
	}
	if cfg.RarityPercentile <= 0 {
		cfg.RarityPercentile = def.RarityPercentile
	}
	if cfg.SpikeWindow <= 0 {
		cfg.SpikeWindow = def.SpikeWindow
	}
	if cfg.SpikeThreshold <= 0 {
		cfg.SpikeThreshold = def.SpikeThreshold
	}
	if cfg.ForestTrees <= 0 {
		cfg.ForestTrees = def.ForestTrees
	}
	if cfg.ForestSampleSize <= 0 {
		cfg.ForestSampleSize = def.ForestSampleSize
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	return &Detector{cfg: cfg}
}

// Detect runs the requested methods (all of them when none are given)
// over the batch, deduplicates findings by event keeping the highest
// score, and returns them sorted descending by score. A statistically
// uninteresting batch yields an empty, nil-error result.
func (d *Detector) Detect(events []*schema.Event, methods ...Method) []Finding {
	if len(methods) == 0 {
		methods = AllMethods()
	}

	slog.Info("running anomaly detection",
		"events", len(events),
		"methods", len(methods))

	var findings []Finding
	for _, method := range methods {
		switch method {
		case MethodOutlier:
			matrix := BuildFeatures(events)
			findings = append(findings, detectOutliers(matrix, ForestConfig{
				Trees:         d.cfg.ForestTrees,
				SampleSize:    d.cfg.ForestSampleSize,
				Contamination: d.cfg.Contamination,
				Seed:          d.cfg.Seed,
			})...)
		case MethodRareMessage:
			findings = append(findings, detectRareMessages(events, d.cfg.RarityPercentile)...)
		case MethodSpike:
			findings = append(findings, detectSpikes(events, d.cfg.SpikeWindow, d.cfg.SpikeThreshold)...)
		default:
			slog.Warn("unknown detection method requested", "method", string(method))
		}
	}

	return dedupeFindings(findings)
}

// dedupeFindings keeps the single highest-scoring finding per event
// and sorts the survivors descending by score.
func dedupeFindings(findings []Finding) []Finding {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Score > findings[j].Score
	})

	seen := make(map[uuid.UUID]bool, len(findings))
	unique := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if seen[f.EventID] {
			continue
		}
		seen[f.EventID] = true
		unique = append(unique, f)
	}
	return unique
}
