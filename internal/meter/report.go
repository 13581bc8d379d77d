package meter

import (
	"github.com/qpulse/pulsemeter/internal/errors"
)

// Snapshot is a point-in-time copy of one channel's counters. It is a plain
// value: renderers and archive writers can hold it without touching live
// state.
type Snapshot struct {
	Channel int
	Record  Record
}

// Snapshot returns a copy of the given channel's record.
func (s *Set) Snapshot(channel int) (Snapshot, error) {
	if channel < 0 || channel >= len(s.records) {
		return Snapshot{}, errors.Wrapf(errors.ErrChannelOutOfRange, "channel %d of %d", channel, len(s.records))
	}

	s.mu.Lock()
	rec := s.records[channel]
	s.mu.Unlock()

	return Snapshot{Channel: channel, Record: rec}, nil
}

// Snapshots returns a copy of every channel's record, taken under a single
// lock so the set is internally consistent.
func (s *Set) Snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Snapshot, len(s.records))
	for i := range s.records {
		out[i] = Snapshot{Channel: i, Record: s.records[i]}
	}
	return out
}
