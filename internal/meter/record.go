// Package meter implements the pulse-counting core: per-channel bucket
// records, the increment path, the minute-driven rollover cascade, and
// read-only snapshots for rendering.
//
// One Record per channel holds a live accumulator and a committed history
// array for every granularity. Pulses land in the Now accumulators; once per
// minute the rollover engine commits each accumulator into its indexed slot
// and resets it, cascading to coarser granularities on calendar boundaries.
// Storage is fixed-size so a whole Record can be persisted verbatim to
// non-volatile media between ticks.
package meter

// Calendar slot counts. Days gets the longest possible month; slots past the
// actual month length are held at zero by the rollover engine.
const (
	MinutesPerHour  = 60
	HoursPerDay     = 24
	DaysPerMonthMax = 31
	MonthsPerYear   = 12
)

// Record is the bucket state for a single meter channel.
//
// The Now fields hold pulses since the last commit at that level. History
// slots are overwritten on commit, never accumulated into. Minute counts are
// deliberately 8-bit: a wrap there loses only finest-granularity resolution,
// and the wider day/month/year accumulators keep counting correctly.
type Record struct {
	MinuteNow uint8
	Minutes   [MinutesPerHour]uint8

	HourNow uint8
	Hours   [HoursPerDay]uint8

	DayNow uint16
	Days   [DaysPerMonthMax]uint16

	MonthNow uint16
	Months   [MonthsPerYear]uint16

	YearNow uint32
	Year    uint32
}

// commitMinute overwrites the minute slot with the live count and resets it.
func (r *Record) commitMinute(minute int) {
	r.Minutes[minute] = r.MinuteNow
	r.MinuteNow = 0
}

// commitHour overwrites the hour slot with the live count and resets it.
func (r *Record) commitHour(hour int) {
	r.Hours[hour] = r.HourNow
	r.HourNow = 0
}

// commitDay overwrites the day slot (1-relative day of month) and resets the
// live count.
func (r *Record) commitDay(day int) {
	r.Days[day-1] = r.DayNow
	r.DayNow = 0
}

// commitMonth overwrites the month slot with the live count and resets it.
func (r *Record) commitMonth(month int) {
	r.Months[month] = r.MonthNow
	r.MonthNow = 0
}

// commitYear overwrites the single year slot and resets the live count.
func (r *Record) commitYear() {
	r.Year = r.YearNow
	r.YearNow = 0
}

// zeroDayTail clears day slots from the 1-relative day through the end of
// the fixed array. Called at the last minute of a month so that averages
// computed over the full 31-slot array stay correct for short months.
func (r *Record) zeroDayTail(day int) {
	for i := day; i < DaysPerMonthMax; i++ {
		r.Days[i] = 0
	}
}
