// Package attackchain correlates chronologically ordered log events
// against a catalog of named multi-step attack patterns and scores the
// matched sequences into an aggregate risk assessment.
package attackchain

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Stage is a coarse attack-progression label.
type Stage string

const (
	StageInitial Stage = "Initial"
	StageMid     Stage = "Mid-Stage"
	StageLate    Stage = "Late-Stage"
	StageImpact  Stage = "Impact"
)

// Step is one ordered step of an attack pattern. An event satisfies a
// step when its message matches the step's pattern; the step completes
// once MinCount matching events have accumulated.
type Step struct {
	Name     string        `yaml:"name"`
	Pattern  string        `yaml:"pattern"`
	MinCount int           `yaml:"min_count"`
	MaxGap   time.Duration `yaml:"max_gap,omitempty"`

	re *regexp.Regexp
}

// Matches reports whether the message satisfies this step's pattern.
func (s *Step) Matches(message string) bool {
	return s.re.MatchString(message)
}

// UnmarshalYAML decodes a step, accepting max_gap as a Go duration
// string such as "30m" or "1h30m".
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name     string `yaml:"name"`
		Pattern  string `yaml:"pattern"`
		MinCount int    `yaml:"min_count"`
		MaxGap   string `yaml:"max_gap"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.Name = raw.Name
	s.Pattern = raw.Pattern
	s.MinCount = raw.MinCount
	if raw.MaxGap != "" {
		gap, err := time.ParseDuration(raw.MaxGap)
		if err != nil {
			return fmt.Errorf("step %q: invalid max_gap: %w", raw.Name, err)
		}
		s.MaxGap = gap
	}
	return nil
}

// Pattern is a named multi-step attack pattern. Patterns are loaded
// once at startup and immutable for the process lifetime.
type Pattern struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Steps       []*Step  `yaml:"steps"`
	Severity    int      `yaml:"severity"`
	Techniques  []string `yaml:"techniques"`
	Stage       Stage    `yaml:"stage"`
}

// Validate checks the pattern definition and compiles its step
// predicates. A malformed pattern is a fatal configuration error at
// catalog-load time, never a per-event runtime error.
func (p *Pattern) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pattern name is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("pattern %q: at least one step is required", p.Name)
	}
	if p.Severity < 0 || p.Severity > 100 {
		return fmt.Errorf("pattern %q: severity must be in [0, 100], got %d", p.Name, p.Severity)
	}

	for i, step := range p.Steps {
		if step.Pattern == "" {
			return fmt.Errorf("pattern %q step %d: pattern is required", p.Name, i)
		}
		if step.MinCount == 0 {
			step.MinCount = 1
		}
		if step.MinCount < 1 {
			return fmt.Errorf("pattern %q step %d: min_count must be >= 1", p.Name, i)
		}
		if step.MaxGap < 0 {
			return fmt.Errorf("pattern %q step %d: max_gap must not be negative", p.Name, i)
		}

		re, err := regexp.Compile("(?i)" + step.Pattern)
		if err != nil {
			return fmt.Errorf("pattern %q step %d: invalid predicate: %w", p.Name, i, err)
		}
		step.re = re
	}

	return nil
}

// Catalog is an immutable set of attack patterns. It is built once and
// passed by reference into the matcher; it is never mutated afterward.
type Catalog struct {
	patterns []*Pattern
}

// NewCatalog validates the given patterns and returns a catalog.
func NewCatalog(patterns []*Pattern) (*Catalog, error) {
	for _, p := range patterns {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return &Catalog{patterns: patterns}, nil
}

// Patterns returns the catalog's patterns in declaration order.
func (c *Catalog) Patterns() []*Pattern {
	return c.patterns
}

// Len returns the number of patterns in the catalog.
func (c *Catalog) Len() int {
	return len(c.patterns)
}

// LoadCatalog reads a YAML pattern catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses a YAML list of patterns into a catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var patterns []*Pattern
	if err := yaml.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	catalog, err := NewCatalog(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}
