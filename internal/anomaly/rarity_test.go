package anomaly

import (
	"testing"

	"otwatch/internal/schema"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{
			name:     "ipv4 address",
			message:  "connection from 192.168.1.77 refused",
			expected: "connection from IP refused",
		},
		{
			name:     "bare numbers",
			message:  "retry 5 of 10",
			expected: "retry NUM of NUM",
		},
		{
			name:     "iso date and time",
			message:  "job ran at 2024-03-15 08:30:00",
			expected: "job ran at DATE TIME",
		},
		{
			name:     "uuid",
			message:  "session 550e8400-e29b-41d4-a716-446655440000 expired",
			expected: "session UUID expired",
		},
		{
			name:     "mixed tokens",
			message:  "  user 42 from 10.0.0.5 at 11:22:33  ",
			expected: "user NUM from IP at TIME",
		},
		{
			name:     "no volatile tokens",
			message:  "disk write failure",
			expected: "disk write failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.message); got != tt.expected {
				t.Errorf("Canonicalize() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDetectRareMessages_Singleton(t *testing.T) {
	var events []*schema.Event

	// Three common canonical forms, twenty occurrences each. Varying
	// numbers collapse into one form per template.
	for i := 0; i < 20; i++ {
		events = append(events,
			untimedEvent("request served in 12ms", schema.LevelInfo, nil),
			untimedEvent("cache hit for key 9", schema.LevelDebug, nil),
			untimedEvent("heartbeat from node 3", schema.LevelInfo, nil),
		)
	}
	singleton := untimedEvent("unexpected firmware checksum mismatch", schema.LevelError, nil)
	events = append(events, singleton)

	findings := detectRareMessages(events, 5.0)

	if len(findings) != 1 {
		t.Fatalf("detectRareMessages() = %d findings, want 1", len(findings))
	}

	f := findings[0]
	if f.EventID != singleton.EventID {
		t.Error("finding does not reference the singleton event")
	}
	if f.Type != DetectorRareMessage {
		t.Errorf("Type = %q, want %q", f.Type, DetectorRareMessage)
	}
	if f.Score < 90 {
		t.Errorf("singleton score = %v, want close to 100", f.Score)
	}
	if f.Severity != SeverityCritical {
		t.Errorf("Severity = %q, want %q", f.Severity, SeverityCritical)
	}
}

func TestDetectRareMessages_OneFindingPerCanonicalForm(t *testing.T) {
	var events []*schema.Event
	for i := 0; i < 20; i++ {
		events = append(events, untimedEvent("routine poll cycle 1 done", schema.LevelInfo, nil))
	}
	// Two raw events, one canonical form: only the first is reported.
	first := untimedEvent("odd reading on sensor 4", schema.LevelWarn, nil)
	second := untimedEvent("odd reading on sensor 9", schema.LevelWarn, nil)
	events = append(events, first, second)

	findings := detectRareMessages(events, 25.0)

	if len(findings) != 1 {
		t.Fatalf("detectRareMessages() = %d findings, want 1", len(findings))
	}
	if findings[0].EventID != first.EventID {
		t.Error("finding should reference the first-seen event of the rare form")
	}
}

func TestDetectRareMessages_Empty(t *testing.T) {
	if findings := detectRareMessages(nil, 5.0); findings != nil {
		t.Errorf("detectRareMessages(nil) = %v, want nil", findings)
	}
}
