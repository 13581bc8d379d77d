package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Sweeper deletes month exports older than the configured retention.
type Sweeper struct {
	dataDir   string
	retention time.Duration
	interval  time.Duration

	now func() time.Time

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a Sweeper over dataDir.
func NewSweeper(dataDir string, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		dataDir:   dataDir,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		shutdown:  make(chan struct{}),
	}
}

// Start runs periodic sweeps until Stop is called.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop stops the sweep loop.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.shutdown) })
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.Sweep(); err != nil {
				log.Warn("retention sweep failed", "error", err)
			} else if n > 0 {
				log.Info("retention sweep", "deleted", n)
			}
		case <-s.shutdown:
			return
		}
	}
}

// Sweep deletes expired exports and returns how many were removed.
func (s *Sweeper) Sweep() (int, error) {
	dir := filepath.Join(s.dataDir, monthsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read export dir: %w", err)
	}

	cutoff := s.now().Add(-s.retention)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".parquet") {
			continue
		}
		ts, err := parseMonthFile(entry.Name())
		if err != nil {
			log.Warn("unrecognized export file", "name", entry.Name())
			continue
		}
		// A month export covers data through the end of that month.
		end := ts.AddDate(0, 1, 0)
		if end.Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return deleted, fmt.Errorf("remove %s: %w", entry.Name(), err)
			}
			deleted++
		}
	}

	return deleted, nil
}

// parseMonthFile extracts the month start from an export filename like
// 2026-04.parquet.
func parseMonthFile(name string) (time.Time, error) {
	base := strings.TrimSuffix(name, ".parquet")
	return time.Parse("2006-01", base)
}
