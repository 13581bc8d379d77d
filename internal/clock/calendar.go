// Package clock provides the wall-clock calendar breakdown consumed by the
// rollover engine, plus the once-per-second ticker that drives it.
//
// The rollover engine never reads the system clock itself; it is handed a
// Calendar value on every tick. That keeps the engine deterministic and lets
// tests drive it through arbitrary calendar positions.
package clock

import (
	"fmt"
	"time"

	"github.com/qpulse/pulsemeter/internal/errors"
)

// Calendar is a broken-down wall-clock instant.
//
// Field conventions follow the classic struct tm layout: Month is 0-11 and
// Day is 1-31, so December 31st 23:59:00 is {Sec: 0, Min: 59, Hour: 23,
// Day: 31, Month: 11}.
type Calendar struct {
	Sec   int // 0-59
	Min   int // 0-59
	Hour  int // 0-23
	Day   int // 1-31, day of month
	Month int // 0-11
	Year  int // full year, e.g. 2026

	// DaysInMonth is the length of the current month, leap-year aware.
	// Supplied here so the rollover engine needs no calendar arithmetic.
	DaysInMonth int
}

// FromTime builds a Calendar from a time.Time.
func FromTime(t time.Time) Calendar {
	return Calendar{
		Sec:         t.Second(),
		Min:         t.Minute(),
		Hour:        t.Hour(),
		Day:         t.Day(),
		Month:       int(t.Month()) - 1,
		Year:        t.Year(),
		DaysInMonth: DaysInMonth(int(t.Month())-1, t.Year()),
	}
}

// Validate checks that all fields are inside their calendar ranges.
func (c Calendar) Validate() error {
	switch {
	case c.Sec < 0 || c.Sec > 59:
		return errors.Wrapf(errors.ErrInvalidCalendar, "second %d", c.Sec)
	case c.Min < 0 || c.Min > 59:
		return errors.Wrapf(errors.ErrInvalidCalendar, "minute %d", c.Min)
	case c.Hour < 0 || c.Hour > 23:
		return errors.Wrapf(errors.ErrInvalidCalendar, "hour %d", c.Hour)
	case c.Month < 0 || c.Month > 11:
		return errors.Wrapf(errors.ErrInvalidCalendar, "month %d", c.Month)
	case c.DaysInMonth < 28 || c.DaysInMonth > 31:
		return errors.Wrapf(errors.ErrInvalidCalendar, "days in month %d", c.DaysInMonth)
	case c.Day < 1 || c.Day > c.DaysInMonth:
		return errors.Wrapf(errors.ErrInvalidCalendar, "day %d of %d", c.Day, c.DaysInMonth)
	}
	return nil
}

// String returns the calendar position as YYYY-MM-DD HH:MM:SS.
func (c Calendar) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		c.Year, c.Month+1, c.Day, c.Hour, c.Min, c.Sec)
}

// Cursor identifies the "current" slot in each historical array. The
// reporter hands this to renderers so they can highlight the open position
// without knowing anything about wall time.
type Cursor struct {
	Minute int // index into Minutes[60]
	Hour   int // index into Hours[24]
	Day    int // index into Days[31], zero-relative
	Month  int // index into Months[12]
}

// Cursor returns the slot cursor for this calendar position.
func (c Calendar) Cursor() Cursor {
	return Cursor{
		Minute: c.Min,
		Hour:   c.Hour,
		Day:    c.Day - 1,
		Month:  c.Month,
	}
}

// monthDays holds the non-leap length of each month, January first.
var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given month (0-11) of the
// given year, accounting for leap years.
func DaysInMonth(month, year int) int {
	if month < 0 || month > 11 {
		return 0
	}
	if month == 1 && IsLeapYear(year) {
		return 29
	}
	return monthDays[month]
}

// IsLeapYear reports whether the year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	if year%400 == 0 {
		return true
	}
	if year%100 == 0 {
		return false
	}
	return year%4 == 0
}
