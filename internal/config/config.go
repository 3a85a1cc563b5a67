// Package config handles configuration loading for otwatch.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete engine configuration.
type Config struct {
	Detection DetectionConfig `yaml:"detection"`
	Chain     ChainConfig     `yaml:"chain"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DetectionConfig tunes the statistical anomaly detectors.
type DetectionConfig struct {
	Contamination    float64       `yaml:"contamination"`     // expected outlier fraction
	RarityPercentile float64       `yaml:"rarity_percentile"` // frequency percentile for rare messages
	SpikeWindow      time.Duration `yaml:"spike_window"`      // bucket size for rate statistics
	SpikeThreshold   float64       `yaml:"spike_threshold"`   // z-score spike threshold
	ForestTrees      int           `yaml:"forest_trees"`
	ForestSampleSize int           `yaml:"forest_sample_size"`
	Seed             int64         `yaml:"seed"`
}

// UnmarshalYAML decodes detection settings, accepting spike_window as a
// Go duration string such as "5m".
func (d *DetectionConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Contamination    *float64 `yaml:"contamination"`
		RarityPercentile *float64 `yaml:"rarity_percentile"`
		SpikeWindow      string   `yaml:"spike_window"`
		SpikeThreshold   *float64 `yaml:"spike_threshold"`
		ForestTrees      *int     `yaml:"forest_trees"`
		ForestSampleSize *int     `yaml:"forest_sample_size"`
		Seed             *int64   `yaml:"seed"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Contamination != nil {
		d.Contamination = *raw.Contamination
	}
	if raw.RarityPercentile != nil {
		d.RarityPercentile = *raw.RarityPercentile
	}
	if raw.SpikeWindow != "" {
		window, err := time.ParseDuration(raw.SpikeWindow)
		if err != nil {
			return fmt.Errorf("invalid spike_window: %w", err)
		}
		d.SpikeWindow = window
	}
	if raw.SpikeThreshold != nil {
		d.SpikeThreshold = *raw.SpikeThreshold
	}
	if raw.ForestTrees != nil {
		d.ForestTrees = *raw.ForestTrees
	}
	if raw.ForestSampleSize != nil {
		d.ForestSampleSize = *raw.ForestSampleSize
	}
	if raw.Seed != nil {
		d.Seed = *raw.Seed
	}
	return nil
}

// ChainConfig tunes attack-chain analysis.
type ChainConfig struct {
	CatalogPath   string `yaml:"catalog_path"` // empty = builtin catalog
	OTEnvironment bool   `yaml:"ot_environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			Contamination:    0.1,
			RarityPercentile: 5.0,
			SpikeWindow:      5 * time.Minute,
			SpikeThreshold:   3.0,
			ForestTrees:      100,
			ForestSampleSize: 256,
			Seed:             42,
		},
		Chain: ChainConfig{
			OTEnvironment: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file, applying defaults for
// unset fields.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	d := c.Detection
	if d.Contamination <= 0 || d.Contamination > 0.5 {
		return fmt.Errorf("detection.contamination must be in (0, 0.5], got %v", d.Contamination)
	}
	if d.RarityPercentile <= 0 || d.RarityPercentile >= 100 {
		return fmt.Errorf("detection.rarity_percentile must be in (0, 100), got %v", d.RarityPercentile)
	}
	if d.SpikeWindow <= 0 {
		return fmt.Errorf("detection.spike_window must be positive, got %v", d.SpikeWindow)
	}
	if d.SpikeThreshold <= 0 {
		return fmt.Errorf("detection.spike_threshold must be positive, got %v", d.SpikeThreshold)
	}
	if d.ForestTrees <= 0 {
		return fmt.Errorf("detection.forest_trees must be positive, got %d", d.ForestTrees)
	}
	if d.ForestSampleSize <= 1 {
		return fmt.Errorf("detection.forest_sample_size must be > 1, got %d", d.ForestSampleSize)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}
