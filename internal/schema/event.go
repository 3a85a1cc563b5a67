// Package schema defines the normalized log event consumed by the
// otwatch detection engines. Events arrive already parsed; the engine
// never mutates them.
package schema

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Event is one normalized log entry. Timestamp and Level may be absent
// when the upstream parser could not extract them; Embedding is present
// only for events that passed through the embedding pipeline.
type Event struct {
	EventID   uuid.UUID  `json:"event_id" validate:"required"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Level     Level      `json:"level,omitempty"`
	Message   string     `json:"message" validate:"required,max=65536"`
	Embedding []float64  `json:"embedding,omitempty"`

	// Optional envelope fields set by the ingestion layer.
	Source     Source         `json:"source,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ReceivedAt time.Time      `json:"received_at,omitempty"`
}

// Source identifies where the event originated.
type Source struct {
	Product string `json:"product,omitempty" validate:"max=256"`
	Host    string `json:"host,omitempty" validate:"max=256"`
}

// Level is the log severity reported by the source system.
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarn     Level = "WARN"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
	LevelFatal    Level = "FATAL"
)

// IsValid checks if the level is a known value. The empty level is
// valid: it means the source did not report one.
func (l Level) IsValid() bool {
	switch l {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelWarning, LevelError, LevelCritical, LevelFatal:
		return true
	}
	return false
}

// Score maps the level to an ordinal 0-4 used as a numeric feature.
// An absent or unknown level scores as INFO.
func (l Level) Score() float64 {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn, LevelWarning:
		return 2
	case LevelError:
		return 3
	case LevelCritical, LevelFatal:
		return 4
	}
	return 1
}

// IsError reports whether the level counts toward error-rate statistics.
func (l Level) IsError() bool {
	switch l {
	case LevelError, LevelCritical, LevelFatal:
		return true
	}
	return false
}

// HasTimestamp reports whether the event can participate in
// time-ordered or windowed computations.
func (e *Event) HasTimestamp() bool {
	return e.Timestamp != nil && !e.Timestamp.IsZero()
}

// SortByTime returns the timestamped events sorted ascending by
// timestamp. Events without a timestamp are excluded; the input slice
// is not modified.
func SortByTime(events []*Event) []*Event {
	sorted := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.HasTimestamp() {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(*sorted[j].Timestamp)
	})
	return sorted
}

// SchemaVersionCurrent is the current version of the event schema.
const SchemaVersionCurrent = "1.0.0"
