package anomaly

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"otwatch/internal/schema"
)

// minSpikeWindows is the fewest populated windows the spike detector
// needs before cross-window statistics are meaningful.
const minSpikeWindows = 3

// window aggregates the events whose timestamps truncate to the same
// boundary.
type window struct {
	start  time.Time
	total  int
	errors int
	events []*schema.Event
}

func (w *window) errorRate() float64 {
	if w.total == 0 {
		return 0
	}
	return float64(w.errors) / float64(w.total)
}

// detectSpikes partitions timestamped events into fixed windows and
// flags windows whose error rate or raw volume deviates beyond
// stdThreshold standard deviations from the batch mean. Untimestamped
// events are excluded from windowing.
func detectSpikes(events []*schema.Event, windowSize time.Duration, stdThreshold float64) []Finding {
	windows := make(map[time.Time]*window)

	for _, event := range events {
		if !event.HasTimestamp() {
			continue
		}
		start := event.Timestamp.Truncate(windowSize)

		w, ok := windows[start]
		if !ok {
			w = &window{start: start}
			windows[start] = w
		}
		w.total++
		w.events = append(w.events, event)
		if event.Level.IsError() {
			w.errors++
		}
	}

	if len(windows) < minSpikeWindows {
		slog.Debug("not enough time windows for spike detection",
			"windows", len(windows),
			"required", minSpikeWindows)
		return nil
	}

	ordered := make([]*window, 0, len(windows))
	for _, w := range windows {
		ordered = append(ordered, w)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })

	errorRates := make([]float64, len(ordered))
	volumes := make([]float64, len(ordered))
	for i, w := range ordered {
		errorRates[i] = w.errorRate()
		volumes[i] = float64(w.total)
	}

	meanRate := stat.Mean(errorRates, nil)
	stdRate := stat.PopStdDev(errorRates, nil)
	meanVolume := stat.Mean(volumes, nil)
	stdVolume := stat.PopStdDev(volumes, nil)

	var findings []Finding
	for _, w := range ordered {
		// Error-rate spike: one finding per error-level event in the
		// window. A zero standard deviation means a perfectly uniform
		// batch; the test is skipped rather than divided by zero.
		if stdRate > 0 {
			z := (w.errorRate() - meanRate) / stdRate
			if z > stdThreshold {
				score := clampScore(50 + 10*z)
				for _, event := range w.events {
					if !event.Level.IsError() {
						continue
					}
					findings = append(findings, Finding{
						EventID:  event.EventID,
						Type:     DetectorSpike,
						Score:    score,
						Severity: SeverityForScore(score),
						Description: fmt.Sprintf("Error rate spike detected (%.1f%% vs %.1f%% avg, %.1fσ)",
							100*w.errorRate(), 100*meanRate, z),
					})
				}
			}
		}

		// Volume spike: one finding for the first event in the window.
		if stdVolume > 0 {
			z := (float64(w.total) - meanVolume) / stdVolume
			if z > stdThreshold && len(w.events) > 0 {
				score := clampScore(40 + 10*z)
				findings = append(findings, Finding{
					EventID:  w.events[0].EventID,
					Type:     DetectorSpike,
					Score:    score,
					Severity: SeverityForScore(score),
					Description: fmt.Sprintf("Log volume spike (%d vs %.0f avg, %.1fσ)",
						w.total, meanVolume, z),
				})
			}
		}
	}

	slog.Info("spike detection complete",
		"windows", len(ordered),
		"findings", len(findings))
	return findings
}
