// Package config handles tuning configuration for the stitch engine.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all capture and stitch tuning knobs (config.yaml).
// Zero values are replaced by defaults on load.
type Config struct {
	// Capture loop
	MaxScrolls   int     `yaml:"maxScrolls"`   // hard cap on incremental scroll iterations
	ScrollRatio  float64 `yaml:"scrollRatio"`  // swipe distance as fraction of screen height
	RefreshCount int     `yaml:"refreshCount"` // pull-to-refresh gestures before measuring
	SettleDelay  int     `yaml:"settleDelayMs"`

	// Overlap detection
	OverlapRatio          float64 `yaml:"overlapRatio"`          // default overlap as fraction of screen height
	DuplicateThreshold    float64 `yaml:"duplicateThreshold"`    // similarity above which two frames are "the same"
	FixedRegionThreshold  float64 `yaml:"fixedRegionThreshold"`  // region similarity for fixed chrome detection
	MatchQualityThreshold float64 `yaml:"matchQualityThreshold"` // template match score below which we warn

	// Stitching
	HeaderFloor int `yaml:"headerFloor"` // minimum fixed header height assumed on Android

	// Transport retries
	DumpRetries int `yaml:"dumpRetries"`
	RetryDelay  int `yaml:"retryDelayMs"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		MaxScrolls:            20,
		ScrollRatio:           0.40,
		RefreshCount:          3,
		SettleDelay:           800,
		OverlapRatio:          0.30,
		DuplicateThreshold:    0.95,
		FixedRegionThreshold:  0.98,
		MatchQualityThreshold: 0.80,
		HeaderFloor:           80,
		DumpRetries:           3,
		RetryDelay:            400,
	}
}

// Load loads configuration from a file, filling defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.normalize()

	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// A missing file yields the default configuration.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// normalize fills zero values with defaults and clamps ratios to sane
// ranges so a bad config degrades instead of breaking the loop.
func (c *Config) normalize() {
	def := Default()

	if c.MaxScrolls <= 0 {
		c.MaxScrolls = def.MaxScrolls
	}
	if c.ScrollRatio <= 0 || c.ScrollRatio > 0.9 {
		c.ScrollRatio = def.ScrollRatio
	}
	if c.RefreshCount < 0 {
		c.RefreshCount = def.RefreshCount
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.OverlapRatio <= 0 || c.OverlapRatio > 0.9 {
		c.OverlapRatio = def.OverlapRatio
	}
	if c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1 {
		c.DuplicateThreshold = def.DuplicateThreshold
	}
	if c.FixedRegionThreshold <= 0 || c.FixedRegionThreshold > 1 {
		c.FixedRegionThreshold = def.FixedRegionThreshold
	}
	if c.MatchQualityThreshold <= 0 || c.MatchQualityThreshold > 1 {
		c.MatchQualityThreshold = def.MatchQualityThreshold
	}
	if c.HeaderFloor <= 0 {
		c.HeaderFloor = def.HeaderFloor
	}
	if c.DumpRetries <= 0 {
		c.DumpRetries = def.DumpRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
}

// SettleWait returns the post-gesture settle delay.
func (c *Config) SettleWait() time.Duration {
	return time.Duration(c.SettleDelay) * time.Millisecond
}

// RetryWait returns the delay between transport retries.
func (c *Config) RetryWait() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}
