package schema

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator handles validation of events against the canonical schema.
type Validator struct {
	validate  *validator.Validate
	maxFuture time.Duration
}

// ValidatorConfig holds configuration for the validator.
type ValidatorConfig struct {
	MaxFuture time.Duration
}

// DefaultValidatorConfig returns the default validator configuration.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxFuture: 5 * time.Minute,
	}
}

// NewValidator creates a new Validator with default configuration.
func NewValidator() *Validator {
	return NewValidatorWithConfig(DefaultValidatorConfig())
}

// NewValidatorWithConfig creates a new Validator with the specified configuration.
func NewValidatorWithConfig(cfg ValidatorConfig) *Validator {
	return &Validator{
		validate:  validator.New(),
		maxFuture: cfg.MaxFuture,
	}
}

// Validate validates an event against the canonical schema.
// Returns an error if validation fails.
func (v *Validator) Validate(event *Event) error {
	if err := v.validate.Struct(event); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if !event.Level.IsValid() {
		return fmt.Errorf("unknown level: %q", event.Level)
	}

	// A timestamp is optional, but when present it must not be from the
	// future beyond clock-skew tolerance.
	if event.HasTimestamp() {
		now := time.Now().UTC()
		if event.Timestamp.After(now.Add(v.maxFuture)) {
			return fmt.Errorf("timestamp in future: %v (max future: %v)", event.Timestamp, v.maxFuture)
		}
	}

	return nil
}

// ValidateBatch validates a slice of events, returning the index of the
// first invalid event alongside the error. Beyond per-event checks it
// enforces cross-event consistency: every embedding in the batch must
// have the same dimension.
func (v *Validator) ValidateBatch(events []*Event) error {
	dims := 0
	for i, event := range events {
		if err := v.Validate(event); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if len(event.Embedding) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(event.Embedding)
		}
		if len(event.Embedding) != dims {
			return fmt.Errorf("event %d: embedding dimension %d does not match batch dimension %d",
				i, len(event.Embedding), dims)
		}
	}
	return nil
}
