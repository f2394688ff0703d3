// Package config provides configuration loading from YAML files.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Message codes accepted by GetMessage.
const (
	MessageBreathingComplete  = "breathing_complete"
	MessageBreathingSkipped   = "breathing_skipped"
	MessageMeditationComplete = "meditation_complete"
	MessageGreatJob           = "great_job"
	MessageCyclesComplete     = "cycles_complete"
	MessageStopped            = "stopped"
	MessageRecorded           = "recorded"
	MessageRecordFailed       = "record_failed"
	MessageHealthUnavailable  = "health_unavailable"
)

// Config represents the application configuration.
type Config struct {
	Breathing  BreathingConfig  `yaml:"breathing"`
	Meditation MeditationConfig `yaml:"meditation"`
	Health     HealthConfig     `yaml:"health"`
	Messages   MessagesConfig   `yaml:"messages"`
	Hooks      HooksConfig      `yaml:"hooks"`
}

// BreathingConfig represents breathing exercise configuration.
type BreathingConfig struct {
	Pattern     string `yaml:"pattern" default:"box" validate:"oneof=box 4-7-8"`
	Repetitions int    `yaml:"repetitions" default:"10" validate:"gte=10,lte=30"`
}

// MeditationConfig represents meditation configuration.
type MeditationConfig struct {
	DefaultMinutes int   `yaml:"default_minutes" default:"30" validate:"gte=1,lte=60"`
	Presets        []int `yaml:"presets" default:"[5,10,20,30]" validate:"min=1,dive,gte=1,lte=60"`
	BreatheFirst   bool  `yaml:"breathe_first"`
}

// HealthConfig represents the health record store configuration.
type HealthConfig struct {
	Type     string         `yaml:"type" default:"sqlite" validate:"oneof=sqlite none"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted  []string `yaml:"on_started"`
	OnFinished []string `yaml:"on_finished"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	BreathingComplete  string `yaml:"breathing_complete" default:"Breathing exercise complete."`
	BreathingSkipped   string `yaml:"breathing_skipped" default:"Breathing exercise skipped."`
	MeditationComplete string `yaml:"meditation_complete" default:"Meditation complete."`
	GreatJob           string `yaml:"great_job" default:"Great job!"`
	CyclesComplete     string `yaml:"cycles_complete" default:"Great job! You've completed {cycles} breathing cycles."`
	Stopped            string `yaml:"stopped" default:"Session stopped."`
	Recorded           string `yaml:"recorded" default:"Mindful minutes saved."`
	RecordFailed       string `yaml:"record_failed" default:"Could not save mindful minutes."`
	HealthUnavailable  string `yaml:"health_unavailable" default:"Health records are not available."`
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	var cfg Config
	return finalize(&cfg)
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults. Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default()
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return finalize(&cfg)
}

func finalize(cfg *Config) (*Config, error) {
	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("CALMBOX_HEALTH_TYPE"); v != "" {
		c.Health.Type = v
	}
	if v := os.Getenv("CALMBOX_HEALTH_PATH"); v != "" {
		if c.Health.Settings == nil {
			c.Health.Settings = make(map[string]any)
		}
		c.Health.Settings["path"] = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case MessageBreathingComplete:
		return c.Messages.BreathingComplete
	case MessageBreathingSkipped:
		return c.Messages.BreathingSkipped
	case MessageMeditationComplete:
		return c.Messages.MeditationComplete
	case MessageGreatJob:
		return c.Messages.GreatJob
	case MessageCyclesComplete:
		return c.Messages.CyclesComplete
	case MessageStopped:
		return c.Messages.Stopped
	case MessageRecorded:
		return c.Messages.Recorded
	case MessageRecordFailed:
		return c.Messages.RecordFailed
	case MessageHealthUnavailable:
		return c.Messages.HealthUnavailable
	default:
		return ""
	}
}

// GetCyclesMessage returns the breathing completion message with {cycles} replaced by cycles.
func (c *Config) GetCyclesMessage(cycles int) string {
	return strings.ReplaceAll(c.Messages.CyclesComplete, "{cycles}", strconv.Itoa(cycles))
}

// IsPreset checks if minutes is one of the configured presets.
func (c *Config) IsPreset(minutes int) bool {
	for _, p := range c.Meditation.Presets {
		if p == minutes {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
