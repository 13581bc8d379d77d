// Package config provides configuration defaults and utilities
// for the pulsemeter application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or environment variables.
package config

import "time"

// =============================================================================
// Channel Defaults
// =============================================================================

const (
	// MaxChannels is the highest supported channel count.
	// The channel index space is 8-bit; a set may hold 0-255 channels.
	MaxChannels = 255

	// DefaultChannels is the number of meter channels when none are configured.
	// Override via config: meter.channels
	DefaultChannels = 1
)

// =============================================================================
// Clock Defaults
// =============================================================================

const (
	// DefaultTickInterval is how often the rollover clock samples wall time.
	// The rollover engine itself acts only on second == 0, so anything at or
	// below one second is correct; shorter intervals tighten boundary latency.
	// Override via config: clock.tick_interval
	DefaultTickInterval = time.Second
)

// =============================================================================
// Pulse Source Defaults
// =============================================================================

const (
	// DefaultEventBufferSize is the capacity of the pulse event ring.
	// When full, new events are dropped and counted, never blocking the source.
	// Override via config: pulse.buffer_size
	DefaultEventBufferSize = 4096

	// DefaultSimRatePerMinute is the simulated pulse rate when a channel
	// does not specify one. Rates above 255/minute wrap the 8-bit minute
	// accumulator, so useful simulated rates stay well below that.
	// Override via config: channels[].rate_per_minute
	DefaultSimRatePerMinute = 60
)

// =============================================================================
// Archive Defaults
// =============================================================================

const (
	// DefaultArchiveDataDir is where parquet month exports are written.
	// Override via config: archive.data_dir
	DefaultArchiveDataDir = "data"

	// DefaultArchiveDBPath is the duckdb readings database path.
	// Override via config: archive.db_path
	DefaultArchiveDBPath = "pulsemeter.db"

	// DefaultRetention is how long month exports are kept on disk.
	// Override via config: archive.retention
	DefaultRetention = 10 * 365 * 24 * time.Hour

	// DefaultRetentionSweepInterval is how often expired exports are pruned.
	// Override via config: archive.sweep_interval
	DefaultRetentionSweepInterval = 24 * time.Hour
)

// =============================================================================
// Control Server Defaults
// =============================================================================

const (
	// DefaultListenAddress is the default control server listen address.
	// The control surface is a local operator protocol, so loopback only.
	// Override via config: server.listen
	DefaultListenAddress = "127.0.0.1:9532"

	// DefaultReadTimeout bounds how long a control connection may sit idle
	// between commands before being closed.
	// Override via config: server.read_timeout
	DefaultReadTimeout = 5 * time.Minute

	// DefaultDrainTimeout is how long to wait for open control connections
	// during shutdown.
	DefaultDrainTimeout = 5 * time.Second
)

// =============================================================================
// SNMP Notification Defaults
// =============================================================================

const (
	// DefaultTrapPort is the standard SNMP trap port.
	// Override via config: notify.port
	DefaultTrapPort = 162

	// DefaultTrapCommunity is the default v2c community for traps.
	// Override via config: notify.community
	DefaultTrapCommunity = "public"

	// DefaultTrapTimeout bounds a single trap send.
	// Override via config: notify.timeout
	DefaultTrapTimeout = 2 * time.Second
)

// =============================================================================
// Statistics Defaults
// =============================================================================

const (
	// DefaultSketchAccuracy is the DDSketch relative accuracy used for
	// pulse rate percentiles.
	// Override via config: stats.accuracy
	DefaultSketchAccuracy = 0.01
)
