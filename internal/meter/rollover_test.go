package meter

import (
	"testing"

	"github.com/qpulse/pulsemeter/internal/clock"
)

// cal builds a calendar breakdown with second zero and a leap-unaware
// 31-day default month length, overridable per test.
func cal(min, hour, day, month int) clock.Calendar {
	return clock.Calendar{
		Sec:         0,
		Min:         min,
		Hour:        hour,
		Day:         day,
		Month:       month,
		Year:        2026,
		DaysInMonth: clock.DaysInMonth(month, 2026),
	}
}

// pump adds n pulses to channel 0.
func pump(t *testing.T, s *Set, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Increment(0); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}
}

func TestTick_Suppression(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	// Not a minute boundary.
	c := cal(30, 12, 15, 5)
	c.Sec = 17
	if got := e.Tick(c); got != StatusSuppressed {
		t.Errorf("mid-minute tick = %v, want suppressed", got)
	}

	// First tick of the minute commits.
	if got := e.Tick(cal(30, 12, 15, 5)); got != StatusNormal {
		t.Errorf("boundary tick = %v, want normal", got)
	}

	// Repeat tick in the same minute is an idempotent no-op.
	pump(t, s, 7)
	if got := e.Tick(cal(30, 12, 15, 5)); got != StatusSuppressed {
		t.Errorf("repeat tick = %v, want suppressed", got)
	}
	snap, _ := s.Snapshot(0)
	if snap.Record.MinuteNow != 7 {
		t.Errorf("suppressed tick mutated state: MinuteNow = %d, want 7", snap.Record.MinuteNow)
	}
	if snap.Record.Minutes[30] != 0 {
		t.Errorf("suppressed tick rewrote slot: Minutes[30] = %d", snap.Record.Minutes[30])
	}
}

func TestTick_InvalidCalendar(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	bad := cal(0, 0, 1, 0)
	bad.Month = 12
	if got := e.Tick(bad); got != StatusSuppressed {
		t.Errorf("invalid calendar tick = %v, want suppressed", got)
	}
}

func TestTick_MinuteOnly(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	pump(t, s, 5)
	if got := e.Tick(cal(42, 9, 14, 3)); got != StatusNormal {
		t.Fatalf("tick = %v, want normal", got)
	}

	snap, _ := s.Snapshot(0)
	r := snap.Record

	if r.Minutes[42] != 5 || r.MinuteNow != 0 {
		t.Errorf("minute commit: Minutes[42]=%d MinuteNow=%d, want 5/0", r.Minutes[42], r.MinuteNow)
	}
	// Nothing above the minute level may change on an ordinary minute.
	if r.HourNow != 5 || r.DayNow != 5 || r.MonthNow != 5 || r.YearNow != 5 {
		t.Errorf("higher accumulators disturbed: hour=%d day=%d mon=%d year=%d",
			r.HourNow, r.DayNow, r.MonthNow, r.YearNow)
	}
	for i, v := range r.Hours {
		if v != 0 {
			t.Errorf("Hours[%d] = %d, want 0", i, v)
		}
	}
}

func TestTick_HourBoundary(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	pump(t, s, 3)
	// 14:00:00 on the 15th: minute and hour commit, day does not.
	if got := e.Tick(cal(0, 14, 15, 3)); got != StatusNormal {
		t.Fatalf("tick = %v, want normal", got)
	}

	snap, _ := s.Snapshot(0)
	r := snap.Record

	if r.Minutes[0] != 3 || r.Hours[14] != 3 {
		t.Errorf("Minutes[0]=%d Hours[14]=%d, want 3/3", r.Minutes[0], r.Hours[14])
	}
	if r.MinuteNow != 0 || r.HourNow != 0 {
		t.Errorf("accumulators not reset: min=%d hour=%d", r.MinuteNow, r.HourNow)
	}
	if r.DayNow != 3 {
		t.Errorf("DayNow = %d, want 3 (day must not commit at 14:00)", r.DayNow)
	}
	for i, v := range r.Days {
		if v != 0 {
			t.Errorf("Days[%d] = %d, want 0", i, v)
		}
	}
}

func TestTick_DayBoundary(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	pump(t, s, 9)
	// Midnight on the 16th: minute, hour and day commit; month does not.
	if got := e.Tick(cal(0, 0, 16, 3)); got != StatusNormal {
		t.Fatalf("tick = %v, want normal", got)
	}

	snap, _ := s.Snapshot(0)
	r := snap.Record

	if r.Hours[0] != 9 || r.Days[15] != 9 {
		t.Errorf("Hours[0]=%d Days[15]=%d, want 9/9", r.Hours[0], r.Days[15])
	}
	if r.DayNow != 0 {
		t.Errorf("DayNow = %d, want 0", r.DayNow)
	}
	if r.MonthNow != 9 {
		t.Errorf("MonthNow = %d, want 9 (month must not commit mid-month)", r.MonthNow)
	}
}

func TestTick_MonthEnd_TailZero(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	// Seed the full day array as if a 31-day month had just passed.
	s.mu.Lock()
	for i := range s.records[0].Days {
		s.records[0].Days[i] = uint16(i + 1)
	}
	s.mu.Unlock()

	pump(t, s, 4)

	// April has 30 days: 23:59:00 on the 30th is the month-end minute.
	got := e.Tick(cal(59, 23, 30, 3))
	if got != StatusMonthEnd {
		t.Fatalf("tick = %v, want month-end", got)
	}

	snap, _ := s.Snapshot(0)
	r := snap.Record

	// The 31st slot (index 30) is beyond the month and must be zero.
	if r.Days[30] != 0 {
		t.Errorf("Days[30] = %d, want 0 (tail-zero invariant)", r.Days[30])
	}
	// Committed in-month slots are untouched.
	for i := 0; i < 30; i++ {
		if r.Days[i] != uint16(i+1) {
			t.Errorf("Days[%d] = %d, want %d", i, r.Days[i], i+1)
		}
	}
	// Minute committed; hour is 23 so the cascade stops before the day.
	if r.Minutes[59] != 4 || r.MinuteNow != 0 {
		t.Errorf("Minutes[59]=%d MinuteNow=%d, want 4/0", r.Minutes[59], r.MinuteNow)
	}
	if r.HourNow != 4 || r.DayNow != 4 {
		t.Errorf("hour/day accumulators disturbed at month end: hour=%d day=%d", r.HourNow, r.DayNow)
	}
}

func TestTick_MonthEnd_February(t *testing.T) {
	tests := []struct {
		name string
		year int
		day  int
	}{
		{"common year", 2026, 28},
		{"leap year", 2028, 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := New(1)
			e := NewEngine(s)

			s.mu.Lock()
			for i := range s.records[0].Days {
				s.records[0].Days[i] = 7
			}
			s.mu.Unlock()

			c := clock.Calendar{
				Sec: 0, Min: 59, Hour: 23,
				Day: tt.day, Month: 1, Year: tt.year,
				DaysInMonth: clock.DaysInMonth(1, tt.year),
			}
			if got := e.Tick(c); got != StatusMonthEnd {
				t.Fatalf("tick = %v, want month-end", got)
			}

			snap, _ := s.Snapshot(0)
			for i := tt.day; i < DaysPerMonthMax; i++ {
				if snap.Record.Days[i] != 0 {
					t.Errorf("Days[%d] = %d, want 0", i, snap.Record.Days[i])
				}
			}
			for i := 0; i < tt.day; i++ {
				if snap.Record.Days[i] != 7 {
					t.Errorf("Days[%d] = %d, want 7", i, snap.Record.Days[i])
				}
			}
		})
	}
}

func TestTick_YearRollover(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	pump(t, s, 12)

	// 00:00:00 January 1st: the full cascade runs.
	if got := e.Tick(cal(0, 0, 1, 0)); got != StatusNormal {
		t.Fatalf("tick = %v, want normal", got)
	}

	snap, _ := s.Snapshot(0)
	r := snap.Record

	if r.Minutes[0] != 12 || r.Hours[0] != 12 || r.Days[0] != 12 || r.Months[0] != 12 {
		t.Errorf("cascade commits: min=%d hour=%d day=%d mon=%d, want 12 each",
			r.Minutes[0], r.Hours[0], r.Days[0], r.Months[0])
	}
	if r.Year != 12 || r.YearNow != 0 {
		t.Errorf("year commit: Year=%d YearNow=%d, want 12/0", r.Year, r.YearNow)
	}
	if r.MinuteNow != 0 || r.HourNow != 0 || r.DayNow != 0 || r.MonthNow != 0 {
		t.Errorf("accumulators not reset: %d %d %d %d",
			r.MinuteNow, r.HourNow, r.DayNow, r.MonthNow)
	}
}

func TestTick_MonthBoundaryNotJanuary(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	pump(t, s, 8)

	// 00:00:00 July 1st: month commits, year does not.
	if got := e.Tick(cal(0, 0, 1, 6)); got != StatusNormal {
		t.Fatalf("tick = %v, want normal", got)
	}

	snap, _ := s.Snapshot(0)
	r := snap.Record
	if r.Months[6] != 8 || r.MonthNow != 0 {
		t.Errorf("Months[6]=%d MonthNow=%d, want 8/0", r.Months[6], r.MonthNow)
	}
	if r.YearNow != 8 || r.Year != 0 {
		t.Errorf("year committed mid-year: YearNow=%d Year=%d", r.YearNow, r.Year)
	}
}

func TestTick_AllChannelsCommit(t *testing.T) {
	s, _ := New(3)
	e := NewEngine(s)

	for ch := 0; ch < 3; ch++ {
		for i := 0; i <= ch; i++ {
			if err := s.Increment(ch); err != nil {
				t.Fatalf("Increment(%d): %v", ch, err)
			}
		}
	}

	if got := e.Tick(cal(10, 8, 20, 4)); got != StatusNormal {
		t.Fatalf("tick = %v, want normal", got)
	}

	for ch, snap := range s.Snapshots() {
		want := uint8(ch + 1)
		if snap.Record.Minutes[10] != want {
			t.Errorf("channel %d Minutes[10] = %d, want %d", ch, snap.Record.Minutes[10], want)
		}
	}
}

func TestTick_SequenceAcrossMinutes(t *testing.T) {
	s, _ := New(1)
	e := NewEngine(s)

	// Two consecutive minutes with distinct pulse counts land in their own
	// slots; the second minute does not disturb the first.
	pump(t, s, 2)
	e.Tick(cal(10, 5, 3, 2))
	pump(t, s, 6)
	e.Tick(cal(11, 5, 3, 2))

	snap, _ := s.Snapshot(0)
	r := snap.Record
	if r.Minutes[10] != 2 || r.Minutes[11] != 6 {
		t.Errorf("Minutes[10]=%d Minutes[11]=%d, want 2/6", r.Minutes[10], r.Minutes[11])
	}
	if r.HourNow != 8 {
		t.Errorf("HourNow = %d, want 8", r.HourNow)
	}
	if e.LastMinute() != 11 {
		t.Errorf("LastMinute() = %d, want 11", e.LastMinute())
	}
}
