package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/qpulse/pulsemeter/internal/meter"
)

// monthsDir is the subdirectory for month-end exports.
const monthsDir = "months"

// MonthRow is one channel-day of a finished month in parquet form. Day 0
// carries the month total instead of a single day.
type MonthRow struct {
	Channel int32 `parquet:"channel"`
	Year    int32 `parquet:"year"`
	Month   int32 `parquet:"month"` // 1-12
	Day     int32 `parquet:"day"`   // 1-31, or 0 for the month total
	Pulses  int64 `parquet:"pulses"`
}

// Exporter writes month-end parquet files. One file per finished month holds
// every channel's day array plus its running month total, compressed with
// zstd. Exports are the long-term record: the day array in the meter core is
// overwritten as the next month progresses.
type Exporter struct {
	dataDir string
}

// NewExporter creates an Exporter rooted at dataDir.
func NewExporter(dataDir string) *Exporter {
	return &Exporter{dataDir: dataDir}
}

// monthFile returns the export path for a month, e.g. months/2026-04.parquet.
func (e *Exporter) monthFile(year, month int) string {
	return filepath.Join(e.dataDir, monthsDir, fmt.Sprintf("%04d-%02d.parquet", year, month+1))
}

// ExportMonth writes the finished month's data for all channels. It is
// called on a month-end tick, when the day array tail has just been zeroed,
// so days beyond the month length are stored as zero.
func (e *Exporter) ExportMonth(year, month, daysInMonth int, snaps []meter.Snapshot) (string, error) {
	path := e.monthFile(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	rows := make([]MonthRow, 0, len(snaps)*(daysInMonth+1))
	for _, snap := range snaps {
		for d := 0; d < daysInMonth; d++ {
			rows = append(rows, MonthRow{
				Channel: int32(snap.Channel),
				Year:    int32(year),
				Month:   int32(month + 1),
				Day:     int32(d + 1),
				Pulses:  int64(snap.Record.Days[d]),
			})
		}
		rows = append(rows, MonthRow{
			Channel: int32(snap.Channel),
			Year:    int32(year),
			Month:   int32(month + 1),
			Day:     0,
			Pulses:  int64(snap.Record.MonthNow),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	w := parquet.NewGenericWriter[MonthRow](f, parquet.Compression(&parquet.Zstd))
	if _, err := w.Write(rows); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("close writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}

	log.Info("month exported", "path", path, "rows", len(rows))
	return path, nil
}

// ReadMonth loads a month export back. Used by tests and offline tooling.
func ReadMonth(path string) ([]MonthRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat export: %w", err)
	}

	rows, err := parquet.Read[MonthRow](f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}
