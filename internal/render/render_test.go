package render

import (
	"strings"
	"testing"

	"github.com/qpulse/pulsemeter/internal/clock"
	"github.com/qpulse/pulsemeter/internal/meter"
)

func testSnapshot() meter.Snapshot {
	var rec meter.Record
	rec.MinuteNow = 3
	rec.Minutes[5] = 12
	rec.Hours[2] = 40
	rec.Days[0] = 100
	rec.Months[11] = 999
	rec.Year = 123456
	return meter.Snapshot{Channel: 7, Record: rec}
}

func TestRenderer_PlainHighlight(t *testing.T) {
	var sb strings.Builder
	r := New(&sb)

	cur := clock.Cursor{Minute: 5, Hour: 2, Day: 0, Month: 11}
	if err := r.Channel(testSnapshot(), cur); err != nil {
		t.Fatalf("Channel: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"7: MinNow=3",
		"[12]",     // current minute slot, bracket highlight without color
		"[40]",     // current hour slot
		"[100]",    // current day slot
		"[999]",    // current month slot
		"Year:  123456",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("ANSI sequences emitted to non-terminal writer")
	}
}

func TestRenderer_ColorHighlight(t *testing.T) {
	var sb strings.Builder
	r := New(&sb)
	r.SetColor(true)

	cur := clock.Cursor{Minute: 5, Hour: 2, Day: 0, Month: 11}
	if err := r.Channel(testSnapshot(), cur); err != nil {
		t.Fatalf("Channel: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "\x1b[36m12\x1b[0m") {
		t.Errorf("current minute slot not color highlighted:\n%s", out)
	}
	if strings.Contains(out, "[12]") {
		t.Error("bracket highlight used despite color mode")
	}
}

func TestRenderer_Report_AllChannels(t *testing.T) {
	var sb strings.Builder
	r := New(&sb)

	snaps := []meter.Snapshot{
		{Channel: 0},
		{Channel: 1},
	}
	if err := r.Report(snaps, clock.Cursor{}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "0: MinNow=0") || !strings.Contains(out, "1: MinNow=0") {
		t.Errorf("missing channel headers:\n%s", out)
	}
}
