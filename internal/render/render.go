// Package render formats channel snapshots for human consumption.
//
// The meter core exposes raw values plus a cursor saying which slot in each
// history array is currently open; this package is one possible renderer
// over that contract. The open slot is highlighted with ANSI color when the
// output is a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/qpulse/pulsemeter/internal/clock"
	"github.com/qpulse/pulsemeter/internal/meter"
)

const (
	sgrHighlight = "\x1b[36m" // cyan
	sgrReset     = "\x1b[0m"
)

// Renderer writes snapshot reports.
type Renderer struct {
	w     io.Writer
	color bool
}

// New creates a Renderer. Color is enabled automatically when w is a
// terminal.
func New(w io.Writer) *Renderer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Renderer{w: w, color: color}
}

// SetColor forces color on or off.
func (r *Renderer) SetColor(on bool) {
	r.color = on
}

// Report writes every channel's snapshot, highlighting the slots under the
// cursor.
func (r *Renderer) Report(snaps []meter.Snapshot, cur clock.Cursor) error {
	for _, snap := range snaps {
		if err := r.Channel(snap, cur); err != nil {
			return err
		}
	}
	return nil
}

// Channel writes one channel's snapshot.
func (r *Renderer) Channel(snap meter.Snapshot, cur clock.Cursor) error {
	rec := snap.Record

	var b strings.Builder
	fmt.Fprintf(&b, "%d: MinNow=%d  HourNow=%d  DayNow=%d  MonNow=%d  YearNow=%d\n",
		snap.Channel, rec.MinuteNow, rec.HourNow, rec.DayNow, rec.MonthNow, rec.YearNow)

	b.WriteString("Min :  ")
	for i, v := range rec.Minutes {
		r.cell(&b, uint32(v), i == cur.Minute)
	}
	b.WriteString("\nHour:  ")
	for i, v := range rec.Hours {
		r.cell(&b, uint32(v), i == cur.Hour)
	}
	b.WriteString("\nDay :  ")
	for i, v := range rec.Days {
		r.cell(&b, uint32(v), i == cur.Day)
	}
	b.WriteString("\nMon :  ")
	for i, v := range rec.Months {
		r.cell(&b, uint32(v), i == cur.Month)
	}
	fmt.Fprintf(&b, "\nYear:  %d\n\n", rec.Year)

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) cell(b *strings.Builder, v uint32, current bool) {
	if current && r.color {
		b.WriteString(sgrHighlight)
		fmt.Fprintf(b, "%d", v)
		b.WriteString(sgrReset)
	} else if current {
		fmt.Fprintf(b, "[%d]", v)
	} else {
		fmt.Fprintf(b, "%d", v)
	}
	b.WriteString("  ")
}
