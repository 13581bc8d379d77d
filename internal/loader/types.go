// Package loader handles configuration file loading and validation.
//
// This package is responsible for:
//   - Loading YAML configuration files
//   - Expanding environment variables
//   - Applying defaults and validating the result
package loader

import (
	"fmt"
	"time"

	"github.com/qpulse/pulsemeter/config"
)

// Duration wraps time.Duration with YAML support for values like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// =============================================================================
// Root Configuration
// =============================================================================

// Config is the root configuration structure for pulsemeterd.
type Config struct {
	// Logging configures output format and verbosity.
	Logging LoggingConfig `yaml:"logging"`

	// Clock configures the rollover tick loop.
	Clock ClockConfig `yaml:"clock"`

	// Pulse configures event buffering and simulation.
	Pulse PulseConfig `yaml:"pulse"`

	// Channels defines the meter channels. The channel index is the
	// position in this list.
	Channels []ChannelConfig `yaml:"channels"`

	// Archive configures the readings database and month exports.
	Archive ArchiveConfig `yaml:"archive"`

	// Server configures the TCP control surface.
	Server ServerConfig `yaml:"server"`

	// Notify configures SNMP trap delivery.
	Notify NotifyConfig `yaml:"notify"`

	// Stats configures rate statistics.
	Stats StatsConfig `yaml:"stats"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output to JSON format.
	JSON bool `yaml:"json"`
}

// ClockConfig controls the rollover tick loop.
type ClockConfig struct {
	// TickInterval is how often wall time is sampled. At most one second.
	TickInterval Duration `yaml:"tick_interval"`
}

// PulseConfig controls pulse event delivery.
type PulseConfig struct {
	// BufferSize is the event ring capacity.
	BufferSize int `yaml:"buffer_size"`

	// Simulate enables the synthetic pulse generator. Without it the only
	// pulse source is the control surface (PULSE command), which is the
	// mode used when a hardware frontend feeds the daemon.
	Simulate bool `yaml:"simulate"`
}

// ChannelConfig describes one meter channel.
type ChannelConfig struct {
	// Name is a human label, e.g. "water-main".
	Name string `yaml:"name"`

	// RatePerMinute is the simulated pulse rate. Ignored unless
	// pulse.simulate is on.
	RatePerMinute int `yaml:"rate_per_minute"`
}

// ArchiveConfig controls persistence of committed readings.
type ArchiveConfig struct {
	// Enabled turns the archive on.
	Enabled bool `yaml:"enabled"`

	// DBPath is the duckdb readings database path.
	DBPath string `yaml:"db_path"`

	// DataDir is where month exports are written.
	DataDir string `yaml:"data_dir"`

	// Retention is how long month exports are kept.
	Retention Duration `yaml:"retention"`

	// SweepInterval is how often expired exports are pruned.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// ServerConfig controls the TCP control surface.
type ServerConfig struct {
	// Listen is the control listen address.
	Listen string `yaml:"listen"`

	// ReadTimeout bounds idle time between commands on a connection.
	ReadTimeout Duration `yaml:"read_timeout"`
}

// NotifyConfig controls SNMP trap delivery.
type NotifyConfig struct {
	// Target is the NMS host. Empty disables traps.
	Target string `yaml:"target"`

	// Port is the trap port.
	Port uint16 `yaml:"port"`

	// Community is the v2c community string.
	Community string `yaml:"community"`

	// Timeout bounds a single trap send.
	Timeout Duration `yaml:"timeout"`
}

// StatsConfig controls rate statistics.
type StatsConfig struct {
	// Accuracy is the DDSketch relative accuracy (0 < accuracy < 1).
	Accuracy float64 `yaml:"accuracy"`
}

// DefaultConfig returns a configuration with all defaults applied and a
// single simulated channel.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Clock:   ClockConfig{TickInterval: Duration(config.DefaultTickInterval)},
		Pulse: PulseConfig{
			BufferSize: config.DefaultEventBufferSize,
			Simulate:   true,
		},
		Channels: []ChannelConfig{
			{Name: "channel-0", RatePerMinute: config.DefaultSimRatePerMinute},
		},
		Archive: ArchiveConfig{
			Enabled:       true,
			DBPath:        config.DefaultArchiveDBPath,
			DataDir:       config.DefaultArchiveDataDir,
			Retention:     Duration(config.DefaultRetention),
			SweepInterval: Duration(config.DefaultRetentionSweepInterval),
		},
		Server: ServerConfig{
			Listen:      config.DefaultListenAddress,
			ReadTimeout: Duration(config.DefaultReadTimeout),
		},
		Notify: NotifyConfig{
			Port:      config.DefaultTrapPort,
			Community: config.DefaultTrapCommunity,
			Timeout:   Duration(config.DefaultTrapTimeout),
		},
		Stats: StatsConfig{Accuracy: config.DefaultSketchAccuracy},
	}
}
