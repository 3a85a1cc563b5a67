package attackchain

import (
	"log/slog"
	"sort"
	"time"

	"otwatch/internal/schema"
)

// Sequence is a correlated, multi-event match against one catalog
// pattern. It is derived entirely from the catalog and the event
// corpus; it has no independent identity and is never persisted.
type Sequence struct {
	PatternName     string          `json:"pattern_name"`
	Description     string          `json:"description"`
	Events          []*schema.Event `json:"events"`
	Severity        int             `json:"severity"`
	Techniques      []string        `json:"techniques"`
	Stage           Stage           `json:"stage"`
	TimeSpanMinutes float64         `json:"time_span_minutes"`
}

// Matcher streams chronologically ordered events through each catalog
// pattern's step machine. It holds no per-run state; concurrent Match
// calls over different batches are independent.
type Matcher struct {
	catalog *Catalog
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(catalog *Catalog) *Matcher {
	return &Matcher{catalog: catalog}
}

// matchState is the per-pattern finite-state machine: which step is
// being filled, how many events it has accumulated, when the previous
// step last matched, and every event consumed so far.
type matchState struct {
	stepIndex   int
	countInStep int
	lastMatch   *time.Time
	consumed    []*schema.Event
}

// reduce folds one event into the state machine. It is a pure reducer:
// the returned state fully describes the partial match, and a gap
// violation deterministically resets to the first step (dropping all
// consumed events) before re-evaluating the event against step one.
func reduce(p *Pattern, st matchState, event *schema.Event) matchState {
	if st.stepIndex >= len(p.Steps) {
		return st
	}

	step := p.Steps[st.stepIndex]
	if !step.Matches(event.Message) {
		return st
	}

	// Time-gap constraint against the previous step's last matching
	// event. Events without a timestamp skip the check.
	if step.MaxGap > 0 && st.lastMatch != nil && event.HasTimestamp() {
		if event.Timestamp.Sub(*st.lastMatch) > step.MaxGap {
			st = matchState{}
			step = p.Steps[0]
			if !step.Matches(event.Message) {
				return st
			}
		}
	}

	st.consumed = append(st.consumed, event)
	st.countInStep++

	if st.countInStep >= step.MinCount {
		if event.HasTimestamp() {
			ts := *event.Timestamp
			st.lastMatch = &ts
		}
		st.stepIndex++
		st.countInStep = 0
	}

	return st
}

// complete reports whether every step of the pattern has accumulated
// its required count.
func (st matchState) complete(p *Pattern) bool {
	return st.stepIndex >= len(p.Steps)
}

// Match evaluates every catalog pattern independently against the
// chronological event list. One run may detect multiple patterns;
// consumed events are not shared across patterns. Results are sorted
// by pattern severity, descending.
func (m *Matcher) Match(events []*schema.Event) []*Sequence {
	var detected []*Sequence

	for _, pattern := range m.catalog.Patterns() {
		var st matchState
		for _, event := range events {
			st = reduce(pattern, st, event)
			if st.complete(pattern) {
				break
			}
		}
		if !st.complete(pattern) {
			continue
		}

		seq := &Sequence{
			PatternName:     pattern.Name,
			Description:     pattern.Description,
			Events:          st.consumed,
			Severity:        pattern.Severity,
			Techniques:      pattern.Techniques,
			Stage:           pattern.Stage,
			TimeSpanMinutes: timeSpanMinutes(st.consumed),
		}
		detected = append(detected, seq)

		slog.Info("detected attack sequence",
			"pattern", pattern.Name,
			"severity", pattern.Severity,
			"events", len(st.consumed),
			"span_minutes", seq.TimeSpanMinutes)
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Severity > detected[j].Severity
	})
	return detected
}

// timeSpanMinutes is the elapsed minutes between the earliest and
// latest timestamped matched events, 0 when fewer than two carry
// timestamps.
func timeSpanMinutes(events []*schema.Event) float64 {
	var first, last *time.Time
	count := 0
	for _, e := range events {
		if !e.HasTimestamp() {
			continue
		}
		count++
		if first == nil || e.Timestamp.Before(*first) {
			first = e.Timestamp
		}
		if last == nil || e.Timestamp.After(*last) {
			last = e.Timestamp
		}
	}
	if count < 2 {
		return 0
	}
	return last.Sub(*first).Minutes()
}
