package tuning

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Window      WindowConfig     `yaml:"window"`
	Patterns    PatternsConfig   `yaml:"patterns"`
	Suggestions SuggestionConfig `yaml:"suggestions"`
	Preferences PreferenceConfig `yaml:"preferences"`
}

type WindowConfig struct {
	RecognizeLimit int `yaml:"recognize_limit"`
	// RecognizeDays bounds the window by age; 0 disables the bound.
	RecognizeDays int `yaml:"recognize_days"`
	BatchLimit    int `yaml:"batch_limit"`
}

type Threshold struct {
	MinSupport            int `yaml:"min_support"`
	FullConfidenceSupport int `yaml:"full_confidence_support"`
}

type TemporalConfig struct {
	Threshold `yaml:",inline"`
	TimeZone  string `yaml:"time_zone"`
}

type CommandConfig struct {
	Threshold `yaml:",inline"`
	MaxWords  int `yaml:"max_words"`
	// MinEvents skips command detection until the window holds this many
	// events with a message; 0 disables the gate.
	MinEvents int `yaml:"min_events"`
}

type PatternsConfig struct {
	UpsertRetries   int            `yaml:"upsert_retries"`
	Temporal        TemporalConfig `yaml:"temporal"`
	Command         CommandConfig  `yaml:"command"`
	ProjectAffinity Threshold      `yaml:"project_affinity"`
}

type SuggestionConfig struct {
	DefaultLimit         int      `yaml:"default_limit"`
	MaxLimit             int      `yaml:"max_limit"`
	StaleContentDays     int      `yaml:"stale_content_days"`
	BackupOverdueDays    int      `yaml:"backup_overdue_days"`
	BackupCriticalDays   int      `yaml:"backup_critical_days"`
	AffinityBoost        float64  `yaml:"affinity_boost"`
	PreferredActionBoost float64  `yaml:"preferred_action_boost"`
	MinPatternConfidence float64  `yaml:"min_pattern_confidence"`
	AI                   AIConfig `yaml:"ai"`
}

// AIConfig bounds LLM-proposed suggestions. MaxConfidence caps them below
// the rule-based sources.
type AIConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Limit             int     `yaml:"limit"`
	DefaultConfidence float64 `yaml:"default_confidence"`
	MaxConfidence     float64 `yaml:"max_confidence"`
}

type PreferenceConfig struct {
	DefaultConfidence float64 `yaml:"default_confidence"`
}

// Default returns the embedded defaults.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("tuning defaults: %v", err))
	}
	return cfg
}

// Load reads the defaults and overlays the file named by LEARNING_TUNING_PATH
// when it is set. Keys missing from the override keep their default.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("LEARNING_TUNING_PATH")))
}

func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for name, th := range map[string]Threshold{
		"temporal":         c.Patterns.Temporal.Threshold,
		"command":          c.Patterns.Command.Threshold,
		"project_affinity": c.Patterns.ProjectAffinity,
	} {
		if th.MinSupport < 1 {
			return fmt.Errorf("patterns.%s.min_support must be >= 1", name)
		}
		if th.FullConfidenceSupport < th.MinSupport {
			return fmt.Errorf("patterns.%s.full_confidence_support must be >= min_support", name)
		}
	}
	if _, err := time.LoadLocation(c.Patterns.Temporal.TimeZone); err != nil {
		return fmt.Errorf("patterns.temporal.time_zone: %w", err)
	}
	if c.Suggestions.DefaultLimit < 1 || c.Suggestions.MaxLimit < c.Suggestions.DefaultLimit {
		return fmt.Errorf("suggestions limits: need 1 <= default_limit <= max_limit")
	}
	if ai := c.Suggestions.AI; ai.Enabled {
		if ai.Limit < 1 {
			return fmt.Errorf("suggestions.ai.limit must be >= 1")
		}
		if ai.DefaultConfidence < 0 || ai.MaxConfidence > 1 || ai.DefaultConfidence > ai.MaxConfidence {
			return fmt.Errorf("suggestions.ai confidences: need 0 <= default_confidence <= max_confidence <= 1")
		}
	}
	if c.Window.RecognizeLimit < 1 || c.Window.BatchLimit < 1 {
		return fmt.Errorf("window limits must be >= 1")
	}
	if c.Preferences.DefaultConfidence < 0 || c.Preferences.DefaultConfidence > 1 {
		return fmt.Errorf("preferences.default_confidence must be in [0,1]")
	}
	return nil
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Patterns.Temporal.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) RecognizeSince() time.Duration {
	if c.Window.RecognizeDays <= 0 {
		return 0
	}
	return time.Duration(c.Window.RecognizeDays) * 24 * time.Hour
}

// ThresholdFor returns the support thresholds of one pattern type.
func (p PatternsConfig) ThresholdFor(patternType string) Threshold {
	switch patternType {
	case "temporal":
		return p.Temporal.Threshold
	case "command":
		return p.Command.Threshold
	case "project_affinity":
		return p.ProjectAffinity
	default:
		return Threshold{MinSupport: 3, FullConfidenceSupport: 10}
	}
}

// Confidence maps support onto [0,1], saturating at full confidence.
func (t Threshold) Confidence(support int) float64 {
	if t.FullConfidenceSupport <= 0 || support <= 0 {
		return 0
	}
	c := float64(support) / float64(t.FullConfidenceSupport)
	if c > 1 {
		return 1
	}
	return c
}
