// pulsemeterd is the pulse-counting meter daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/qpulse/pulsemeter/internal/archive"
	"github.com/qpulse/pulsemeter/internal/clock"
	"github.com/qpulse/pulsemeter/internal/errors"
	"github.com/qpulse/pulsemeter/internal/loader"
	"github.com/qpulse/pulsemeter/internal/logging"
	"github.com/qpulse/pulsemeter/internal/meter"
	"github.com/qpulse/pulsemeter/internal/notify"
	"github.com/qpulse/pulsemeter/internal/pulse"
	"github.com/qpulse/pulsemeter/internal/server"
	"github.com/qpulse/pulsemeter/internal/stats"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	listen := flag.String("listen", "", "control listen address (overrides config)")
	dbPath := flag.String("db", "", "readings database path (overrides config)")
	noSim := flag.Bool("no-simulate", false, "disable the pulse simulator")
	jsonLogs := flag.Bool("json-logs", false, "force JSON log output")
	flag.Parse()

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = loader.DefaultConfig()
		} else {
			logging.Init(slog.LevelInfo, false)
			logging.Error("load config", "error", err)
			os.Exit(1)
		}
	}

	// CLI overrides
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *dbPath != "" {
		cfg.Archive.DBPath = *dbPath
	}
	if *noSim {
		cfg.Pulse.Simulate = false
	}

	level := parseLevel(cfg.Logging.Level)
	logging.Init(level, cfg.Logging.JSON || *jsonLogs)
	log := logging.Component("main")
	log.Info("pulsemeterd starting", "version", Version, "channels", len(cfg.Channels))

	// =========================================================================
	// Core: channel set and rollover engine
	// =========================================================================

	set, err := meter.New(len(cfg.Channels))
	if err != nil {
		log.Error("create channel set", "error", err)
		os.Exit(1)
	}
	engine := meter.NewEngine(set)

	// =========================================================================
	// Collaborators: stats, archive, notification
	// =========================================================================

	collector := stats.NewCollector(set.Len(), cfg.Stats.Accuracy)

	var store *archive.Store
	var exporter *archive.Exporter
	var sweeper *archive.Sweeper
	if cfg.Archive.Enabled {
		store, err = archive.Open(cfg.Archive.DBPath)
		if err != nil {
			log.Error("open archive", "error", err)
			os.Exit(1)
		}
		exporter = archive.NewExporter(cfg.Archive.DataDir)
		sweeper = archive.NewSweeper(cfg.Archive.DataDir,
			cfg.Archive.Retention.Duration(), cfg.Archive.SweepInterval.Duration())
		sweeper.Start()
		log.Info("archive enabled", "db", cfg.Archive.DBPath, "data_dir", cfg.Archive.DataDir)
	}

	traps := notify.NewTrapSender(notify.Config{
		Target:    cfg.Notify.Target,
		Port:      cfg.Notify.Port,
		Community: cfg.Notify.Community,
		Timeout:   cfg.Notify.Timeout.Duration(),
	})
	if traps != nil {
		log.Info("snmp traps enabled", "target", cfg.Notify.Target)
	}

	// The overflow hook runs on the increment path; trap delivery is network
	// I/O, so it is handed to a goroutine.
	set.OnOverflow(func(ch int) {
		go traps.Overflow(ch)
	})

	// =========================================================================
	// Pulse delivery
	// =========================================================================

	ring := pulse.NewRing(cfg.Pulse.BufferSize)
	dispatcher := pulse.NewDispatcher(ring, set.Increment)
	dispatcher.SetObserver(func(ev pulse.Event) {
		collector.Observe(ev.Channel, ev.At)
	})
	dispatcher.Start()

	var sim *pulse.Simulator
	if cfg.Pulse.Simulate {
		rates := make([]pulse.ChannelRate, len(cfg.Channels))
		for i, ch := range cfg.Channels {
			rates[i] = pulse.ChannelRate{Channel: i, RatePerMinute: ch.RatePerMinute}
		}
		sim = pulse.NewSimulator(ring, rates)
		sim.Start()
	}

	// =========================================================================
	// Rollover pipeline
	// =========================================================================

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	ticks := make(chan clock.Calendar, 4)
	ticker := clock.NewTicker(cfg.Clock.TickInterval.Duration(), func(cal clock.Calendar) {
		select {
		case ticks <- cal:
		default:
			// A slow archive write must not back up the clock; the engine
			// suppresses repeats anyway.
		}
	})
	ticker.Start()

	g.Go(func() error {
		for {
			select {
			case cal := <-ticks:
				processTick(gctx, engine, set, cal, store, exporter, traps)
			case <-gctx.Done():
				return nil
			}
		}
	})

	// =========================================================================
	// Control server
	// =========================================================================

	names := make([]string, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		names[i] = ch.Name
	}

	srv := server.New(server.Config{
		Listen:       cfg.Server.Listen,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		Set:          set,
		Engine:       engine,
		Stats:        collector,
		ChannelNames: names,
	})
	if err := srv.Start(); err != nil {
		log.Error("start control server", "error", err)
		os.Exit(1)
	}

	// =========================================================================
	// Run until signalled, then unwind in dependency order
	// =========================================================================

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		srv.Shutdown()
		if sim != nil {
			sim.Stop()
		}
		ticker.Stop()
		dispatcher.Stop()
		if sweeper != nil {
			sweeper.Stop()
		}
		if store != nil {
			if err := store.Close(); err != nil {
				log.Warn("close archive", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("daemon error", "error", err)
		os.Exit(1)
	}
	log.Info("pulsemeterd stopped")
}

// processTick runs the rollover and feeds its outcome to the collaborators.
func processTick(ctx context.Context, engine *meter.Engine, set *meter.Set,
	cal clock.Calendar, store *archive.Store, exporter *archive.Exporter,
	traps *notify.TrapSender) {

	status := engine.Tick(cal)
	if status == meter.StatusSuppressed {
		return
	}

	snaps := set.Snapshots()

	if store != nil {
		if err := store.RecordTick(ctx, cal, status, snaps); err != nil {
			if errors.IsRetriable(err) {
				logging.Warn("archive tick", "error", err)
			} else {
				logging.Error("archive tick", "error", err)
			}
		}
	}

	if status == meter.StatusMonthEnd {
		var path string
		if exporter != nil {
			p, err := exporter.ExportMonth(cal.Year, cal.Month, cal.DaysInMonth, snaps)
			if err != nil {
				logging.Warn("month export", "error", err)
			} else {
				path = p
			}
		}
		go traps.MonthEnd(cal.Year, cal.Month, path)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
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
