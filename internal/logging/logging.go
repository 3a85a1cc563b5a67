// Package logging provides logging utilities for otwatch.
package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"

	"otwatch/internal/config"
)

// Setup installs the process-wide slog handler per configuration.
// Diagnostics go to stderr so report output on stdout stays clean.
func Setup(cfg config.LoggingConfig) {
	SetupWriter(cfg, os.Stderr)
}

// SetupWriter installs a handler writing to w.
func SetupWriter(cfg config.LoggingConfig, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// credentialPattern matches inline secrets that sometimes appear in
// raw log messages (password=..., token=..., api_key=...).
var credentialPattern = regexp.MustCompile(`(?i)\b(password|passwd|secret|token|api[_-]?key|authorization)\s*[:=]\s*\S+`)

// MaskedValue replaces sensitive values in logged messages.
const MaskedValue = "[REDACTED]"

// MaskMessage redacts inline credentials from a raw event message
// before it is written to a diagnostic log line.
func MaskMessage(message string) string {
	return credentialPattern.ReplaceAllStringFunc(message, func(m string) string {
		sub := credentialPattern.FindStringSubmatch(m)
		return sub[1] + "=" + MaskedValue
	})
}
