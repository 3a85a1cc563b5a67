package anomaly

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"otwatch/internal/schema"
)

// Volatile token patterns stripped during message canonicalization.
// UUIDs, dates and times are replaced before bare decimal runs so the
// more specific tokens survive as their own placeholders.
var (
	ipPattern   = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	timePattern = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
	numPattern  = regexp.MustCompile(`\b\d+\b`)
)

// Canonicalize strips the variable parts of a log message so that
// structurally identical messages collapse to one canonical form.
func Canonicalize(message string) string {
	message = ipPattern.ReplaceAllString(message, "IP")
	message = uuidPattern.ReplaceAllString(message, "UUID")
	message = datePattern.ReplaceAllString(message, "DATE")
	message = timePattern.ReplaceAllString(message, "TIME")
	message = numPattern.ReplaceAllString(message, "NUM")
	return strings.TrimSpace(message)
}

// detectRareMessages flags messages whose canonical form occurs at or
// below the target frequency percentile. One finding is emitted per
// rare canonical form, attached to the first event that produced it.
func detectRareMessages(events []*schema.Event, percentile float64) []Finding {
	if len(events) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, event := range events {
		counts[Canonicalize(event.Message)]++
	}

	frequencies := make([]float64, 0, len(counts))
	for _, c := range counts {
		frequencies = append(frequencies, float64(c))
	}
	sort.Float64s(frequencies)

	threshold := stat.Quantile(percentile/100, stat.LinInterp, frequencies, nil)
	maxCount := frequencies[len(frequencies)-1]

	var findings []Finding
	seen := make(map[string]bool)

	for _, event := range events {
		canonical := Canonicalize(event.Message)
		if seen[canonical] {
			continue
		}

		count := counts[canonical]
		if float64(count) > threshold {
			continue
		}
		seen[canonical] = true

		score := clampScore(100 * (1 - float64(count)/maxCount))
		findings = append(findings, Finding{
			EventID:  event.EventID,
			Type:     DetectorRareMessage,
			Score:    score,
			Severity: SeverityForScore(score),
			Description: fmt.Sprintf("Rare message pattern (appears %d times, below p%.0f frequency)",
				count, percentile),
		})
	}

	slog.Info("rare message detection complete",
		"canonical_forms", len(counts),
		"findings", len(findings))
	return findings
}
