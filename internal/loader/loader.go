package loader

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qpulse/pulsemeter/config"
	"github.com/qpulse/pulsemeter/internal/errors"
)

// =============================================================================
// Load
// =============================================================================

// Load loads configuration from a YAML file, expanding environment
// variables, then applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills zero values that yaml decoding may have cleared.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Clock.TickInterval <= 0 {
		c.Clock.TickInterval = Duration(config.DefaultTickInterval)
	}
	if c.Pulse.BufferSize <= 0 {
		c.Pulse.BufferSize = config.DefaultEventBufferSize
	}
	if c.Server.Listen == "" {
		c.Server.Listen = config.DefaultListenAddress
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = Duration(config.DefaultReadTimeout)
	}
	if c.Archive.DBPath == "" {
		c.Archive.DBPath = config.DefaultArchiveDBPath
	}
	if c.Archive.DataDir == "" {
		c.Archive.DataDir = config.DefaultArchiveDataDir
	}
	if c.Archive.Retention <= 0 {
		c.Archive.Retention = Duration(config.DefaultRetention)
	}
	if c.Archive.SweepInterval <= 0 {
		c.Archive.SweepInterval = Duration(config.DefaultRetentionSweepInterval)
	}
	if c.Notify.Port == 0 {
		c.Notify.Port = config.DefaultTrapPort
	}
	if c.Notify.Community == "" {
		c.Notify.Community = config.DefaultTrapCommunity
	}
	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = Duration(config.DefaultTrapTimeout)
	}
	if c.Stats.Accuracy <= 0 || c.Stats.Accuracy >= 1 {
		c.Stats.Accuracy = config.DefaultSketchAccuracy
	}
	for i := range c.Channels {
		if c.Channels[i].Name == "" {
			c.Channels[i].Name = fmt.Sprintf("channel-%d", i)
		}
		if c.Channels[i].RatePerMinute <= 0 {
			c.Channels[i].RatePerMinute = config.DefaultSimRatePerMinute
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	v := errors.NewValidationErrors()

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		v.AddField("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}

	if c.Clock.TickInterval.Duration() > time.Second {
		v.AddField("clock.tick_interval",
			"must be at most one second or minute boundaries can be missed")
	}

	if len(c.Channels) > config.MaxChannels {
		v.AddField("channels", fmt.Sprintf("at most %d channels supported", config.MaxChannels))
	}

	seen := make(map[string]bool, len(c.Channels))
	for i, ch := range c.Channels {
		if seen[ch.Name] {
			v.AddField(fmt.Sprintf("channels[%d].name", i), fmt.Sprintf("duplicate name %q", ch.Name))
		}
		seen[ch.Name] = true
	}

	return v.Err()
}
