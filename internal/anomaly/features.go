package anomaly

import (
	"log/slog"
	"time"

	"otwatch/internal/schema"
)

// maxTimeDelta caps the inter-arrival feature at one hour so a single
// long quiet period does not dominate the feature space.
const maxTimeDelta = 3600.0

// FeatureMatrix holds the numeric feature vectors for the subset of a
// batch that is eligible for multivariate outlier detection, aligned
// index-for-index with the events they were derived from.
type FeatureMatrix struct {
	Vectors [][]float64
	Events  []*schema.Event
}

// Len returns the number of feature vectors in the matrix.
func (m *FeatureMatrix) Len() int {
	return len(m.Vectors)
}

// BuildFeatures derives a feature vector per event:
// [...embedding dims, level score, capped seconds since previous event].
// Events without an embedding are excluded entirely; they remain
// eligible for the text and rate detectors but cannot participate in
// outlier detection. The first kept event fixes the embedding
// dimension for the batch; events whose embedding disagrees are
// excluded the same way, so every vector in the matrix has equal
// length.
func BuildFeatures(events []*schema.Event) *FeatureMatrix {
	matrix := &FeatureMatrix{}

	dims := 0
	var prev *time.Time
	for _, event := range events {
		if len(event.Embedding) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(event.Embedding)
		}
		if len(event.Embedding) != dims {
			slog.Debug("excluding event with mismatched embedding dimension",
				"event_id", event.EventID,
				"dims", len(event.Embedding),
				"expected", dims)
			continue
		}

		vector := make([]float64, 0, len(event.Embedding)+2)
		vector = append(vector, event.Embedding...)
		vector = append(vector, event.Level.Score())
		vector = append(vector, timeDelta(event, prev))

		matrix.Vectors = append(matrix.Vectors, vector)
		matrix.Events = append(matrix.Events, event)

		if event.HasTimestamp() {
			prev = event.Timestamp
		}
	}

	return matrix
}

// timeDelta returns the capped seconds elapsed since the previous
// eligible event, or 0 for the first event or a missing timestamp.
func timeDelta(event *schema.Event, prev *time.Time) float64 {
	if prev == nil || !event.HasTimestamp() {
		return 0
	}
	delta := event.Timestamp.Sub(*prev).Seconds()
	if delta < 0 {
		return 0
	}
	if delta > maxTimeDelta {
		return maxTimeDelta
	}
	return delta
}
