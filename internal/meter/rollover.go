package meter

import (
	"fmt"
	"sync/atomic"

	"github.com/qpulse/pulsemeter/internal/clock"
	"github.com/qpulse/pulsemeter/internal/logging"
)

var rolloverLog = logging.Component("rollover")

// Status is the outcome of a rollover tick.
type Status int

const (
	// StatusSuppressed means the tick was a no-op: not on a minute boundary,
	// or this minute was already processed.
	StatusSuppressed Status = -1

	// StatusNormal means an ordinary commit ran (minute, possibly cascading
	// to hour/day/month/year).
	StatusNormal Status = 0

	// StatusMonthEnd means the tick landed on the last minute of the month
	// and the day-array tail was zeroed.
	StatusMonthEnd Status = 1
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusSuppressed:
		return "suppressed"
	case StatusNormal:
		return "normal"
	case StatusMonthEnd:
		return "month-end"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Engine commits live accumulators into historical slots on minute
// boundaries, cascading to coarser granularities on calendar boundaries.
//
// The cascade gating mirrors calendar semantics: each level commits only
// when the lower level has just wrapped. Minute 0 is an hour boundary; hour
// 0 with minute 0 is a day boundary; day 1 with hour 0 is a month boundary;
// month 0 (January) with day 1 is a year boundary. A single per-minute tick
// therefore covers every granularity, since coarser boundaries are always
// also minute boundaries.
//
// Engine is driven from a single goroutine (the clock ticker); it is not
// itself safe for concurrent Tick calls. Increments may race with Tick
// freely: the set mutex keeps each commit-and-reset atomic with respect to
// the increment path.
type Engine struct {
	set *Set

	// lastMin is the most recently processed minute-of-hour, -1 before the
	// first commit. Repeat ticks inside the same minute are suppressed.
	// Atomic because the status surface reads it concurrently.
	lastMin atomic.Int32
}

// NewEngine creates a rollover engine over the given channel set.
func NewEngine(set *Set) *Engine {
	e := &Engine{set: set}
	e.lastMin.Store(-1)
	return e
}

// Tick processes one wall-clock breakdown. It is idempotent per distinct
// minute: the first call at second zero of a minute commits, every other
// call returns StatusSuppressed and mutates nothing.
func (e *Engine) Tick(cal clock.Calendar) Status {
	if err := cal.Validate(); err != nil {
		rolloverLog.Warn("tick rejected", "error", err)
		return StatusSuppressed
	}
	if cal.Sec != 0 || int32(cal.Min) == e.lastMin.Load() {
		return StatusSuppressed
	}
	e.lastMin.Store(int32(cal.Min))

	status := StatusNormal

	// Boundary predicates for this minute. Hour boundary and month end are
	// mutually exclusive (minute 0 vs minute 59).
	hourBoundary := cal.Min == 0
	monthEnd := cal.Min == 59 && cal.Hour == 23 && cal.Day == cal.DaysInMonth
	if monthEnd {
		status = StatusMonthEnd
	}

	e.set.mu.Lock()
	for i := range e.set.records {
		r := &e.set.records[i]

		// Step 1: the minute always commits.
		r.commitMinute(cal.Min)

		// Step 2: cascade continues only into an hour boundary or the
		// month-end special case.
		if !hourBoundary && !monthEnd {
			continue
		}
		if hourBoundary {
			r.commitHour(cal.Hour)
		}
		if monthEnd {
			// Tail-zero invariant for months shorter than 31 days.
			r.zeroDayTail(cal.Day)
		}

		// Step 3: day commits at midnight only.
		if cal.Hour != 0 {
			continue
		}
		r.commitDay(cal.Day)

		// Step 4: month commits on the 1st only.
		if cal.Day != 1 {
			continue
		}
		r.commitMonth(cal.Month)

		// Step 5: year commits in January only.
		if cal.Month != 0 {
			continue
		}
		r.commitYear()
	}
	e.set.mu.Unlock()

	rolloverLog.Debug("tick committed",
		"at", cal.String(),
		"status", status.String(),
		"channels", len(e.set.records))
	return status
}

// LastMinute returns the most recently processed minute, or -1 if no minute
// has been processed yet.
func (e *Engine) LastMinute() int {
	return int(e.lastMin.Load())
}
