package anomaly

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"otwatch/internal/schema"
)

var testBase = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func testEvent(msg string, level schema.Level, offset time.Duration, embedding []float64) *schema.Event {
	ts := testBase.Add(offset)
	return &schema.Event{
		EventID:   uuid.New(),
		Timestamp: &ts,
		Level:     level,
		Message:   msg,
		Embedding: embedding,
	}
}

func untimedEvent(msg string, level schema.Level, embedding []float64) *schema.Event {
	return &schema.Event{
		EventID:   uuid.New(),
		Level:     level,
		Message:   msg,
		Embedding: embedding,
	}
}

func TestBuildFeatures(t *testing.T) {
	events := []*schema.Event{
		testEvent("first", schema.LevelInfo, 0, []float64{0.1, 0.2}),
		testEvent("no embedding", schema.LevelError, time.Second, nil),
		testEvent("second", schema.LevelError, 30*time.Second, []float64{0.3, 0.4}),
		testEvent("far future", schema.LevelWarn, 3*time.Hour, []float64{0.5, 0.6}),
		untimedEvent("no timestamp", schema.LevelDebug, []float64{0.7, 0.8}),
	}

	matrix := BuildFeatures(events)

	if matrix.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 (event without embedding excluded)", matrix.Len())
	}

	// Each vector is [embedding..., level score, capped time delta].
	tests := []struct {
		idx        int
		levelScore float64
		delta      float64
	}{
		{0, 1, 0},    // first event has no predecessor
		{1, 3, 30},   // 30s after the first eligible event
		{2, 2, 3600}, // 3h delta capped at one hour
		{3, 0, 0},    // missing timestamp
	}

	for _, tt := range tests {
		vec := matrix.Vectors[tt.idx]
		if len(vec) != 4 {
			t.Fatalf("vector %d has %d dims, want 4", tt.idx, len(vec))
		}
		if vec[2] != tt.levelScore {
			t.Errorf("vector %d level score = %v, want %v", tt.idx, vec[2], tt.levelScore)
		}
		if vec[3] != tt.delta {
			t.Errorf("vector %d time delta = %v, want %v", tt.idx, vec[3], tt.delta)
		}
	}
}

func TestBuildFeatures_MismatchedEmbeddingExcluded(t *testing.T) {
	events := []*schema.Event{
		testEvent("a", schema.LevelInfo, 0, []float64{0.1, 0.2, 0.3, 0.4}),
		testEvent("short embedding", schema.LevelInfo, time.Second, []float64{0.1, 0.2}),
		testEvent("b", schema.LevelInfo, 2*time.Second, []float64{0.5, 0.6, 0.7, 0.8}),
	}

	matrix := BuildFeatures(events)

	if matrix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (mismatched embedding excluded)", matrix.Len())
	}
	for i, vec := range matrix.Vectors {
		if len(vec) != 6 {
			t.Errorf("vector %d has %d dims, want 6", i, len(vec))
		}
	}
	if matrix.Events[1].Message != "b" {
		t.Errorf("kept events = [%q, %q], want the two 4-dim events",
			matrix.Events[0].Message, matrix.Events[1].Message)
	}
}

func TestBuildFeatures_Empty(t *testing.T) {
	matrix := BuildFeatures(nil)
	if matrix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", matrix.Len())
	}
}
