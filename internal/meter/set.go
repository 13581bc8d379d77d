package meter

import (
	"sync"
	"sync/atomic"

	"github.com/qpulse/pulsemeter/config"
	"github.com/qpulse/pulsemeter/internal/errors"
	"github.com/qpulse/pulsemeter/internal/logging"
)

var log = logging.Component("meter")

// WarnFunc is invoked when a channel's minute accumulator wraps. It runs on
// the increment path, so implementations must not block; hand off to a
// channel or goroutine if delivery can stall.
type WarnFunc func(channel int)

// Set is a fixed-capacity collection of channel Records. The size is set at
// construction and never changes.
//
// Set is safe for concurrent use. A single mutex serializes increments
// against the rollover commit-and-reset sequence, so every pulse is
// attributed to exactly one side of a rollover boundary; which side is
// unspecified.
type Set struct {
	mu      sync.Mutex
	records []Record

	warn WarnFunc

	// Counters for the status surface.
	pulses atomic.Int64
	wraps  atomic.Int64
}

// New creates a Set with the given channel count. The count must fit the
// 8-bit channel index space: 0 through 255 inclusive.
func New(channelCount int) (*Set, error) {
	if channelCount < 0 || channelCount > config.MaxChannels {
		return nil, errors.Wrapf(errors.ErrInvalidChannelCount, "%d", channelCount)
	}
	return &Set{
		records: make([]Record, channelCount),
	}, nil
}

// OnOverflow registers the minute-wrap warning hook. A nil hook disables it;
// the wrap is still logged and counted either way.
func (s *Set) OnOverflow(fn WarnFunc) {
	s.warn = fn
}

// Len returns the number of channels.
func (s *Set) Len() int {
	return len(s.records)
}

// Increment records one pulse on the given channel, bumping all five live
// accumulators. It performs no I/O and returns in bounded time.
//
// If the 8-bit minute accumulator wraps back to zero, the pulse is still
// counted (the wider accumulators have the headroom) and Increment returns
// an error satisfying errors.IsWarning: only minute-level resolution was
// lost, and callers that treat errors as failures must filter warnings out.
func (s *Set) Increment(channel int) error {
	if channel < 0 || channel >= len(s.records) {
		return errors.Wrapf(errors.ErrChannelOutOfRange, "channel %d of %d", channel, len(s.records))
	}

	s.mu.Lock()
	r := &s.records[channel]
	r.MinuteNow++
	wrapped := r.MinuteNow == 0
	r.HourNow++
	r.DayNow++
	r.MonthNow++
	r.YearNow++
	s.mu.Unlock()

	s.pulses.Add(1)

	if wrapped {
		s.wraps.Add(1)
		log.Warn("minute counter wrapped, pulse rate too high", "channel", channel)
		if s.warn != nil {
			s.warn(channel)
		}
		return errors.Wrapf(errors.ErrOverflowWarning, "channel %d", channel)
	}
	return nil
}

// Pulses returns the total pulses accepted across all channels.
func (s *Set) Pulses() int64 {
	return s.pulses.Load()
}

// Wraps returns the number of minute-accumulator wraps observed.
func (s *Set) Wraps() int64 {
	return s.wraps.Load()
}
