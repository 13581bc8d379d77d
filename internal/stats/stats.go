// Package stats maintains per-channel pulse rate statistics.
//
// Each channel gets a RateSketch recording the gaps between consecutive
// pulses. Percentiles come from a DDSketch, so the memory cost is bounded
// regardless of pulse volume. The results feed the daemon's status surface;
// nothing here touches the meter core.
package stats

import (
	"math"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Result is a point-in-time summary of one channel's pulse gaps, in seconds.
type Result struct {
	Channel int
	Count   int64
	Min     float64
	Max     float64
	Avg     float64
	P50     float64
	P90     float64
	P95     float64
	P99     float64
}

// RateSketch maintains running gap statistics for a single channel.
type RateSketch struct {
	mu sync.Mutex

	channel  int
	accuracy float64
	last     time.Time

	count int64
	sum   float64
	min   float64
	max   float64

	sketch *ddsketch.DDSketch
}

// NewRateSketch creates a RateSketch with the given relative accuracy.
func NewRateSketch(channel int, accuracy float64) *RateSketch {
	rs := &RateSketch{
		channel:  channel,
		accuracy: accuracy,
		min:      math.MaxFloat64,
		max:      -math.MaxFloat64,
	}

	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err == nil {
		rs.sketch = sketch
	}

	return rs
}

// Observe records one pulse at the given instant. The first pulse only
// establishes the baseline; every later pulse contributes a gap sample.
func (rs *RateSketch) Observe(at time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.last.IsZero() {
		rs.last = at
		return
	}

	gap := at.Sub(rs.last).Seconds()
	rs.last = at
	if gap < 0 {
		return
	}

	rs.count++
	rs.sum += gap
	if gap < rs.min {
		rs.min = gap
	}
	if gap > rs.max {
		rs.max = gap
	}
	if rs.sketch != nil {
		rs.sketch.Add(gap)
	}
}

// Result returns the current summary.
func (rs *RateSketch) Result() Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	result := Result{
		Channel: rs.channel,
		Count:   rs.count,
	}

	if rs.count > 0 {
		result.Avg = rs.sum / float64(rs.count)
		result.Min = rs.min
		result.Max = rs.max
	}

	if rs.sketch != nil && rs.count > 0 {
		result.P50, _ = rs.sketch.GetValueAtQuantile(0.50)
		result.P90, _ = rs.sketch.GetValueAtQuantile(0.90)
		result.P95, _ = rs.sketch.GetValueAtQuantile(0.95)
		result.P99, _ = rs.sketch.GetValueAtQuantile(0.99)
	}

	return result
}

// Reset clears all state, keeping the channel identity.
func (rs *RateSketch) Reset() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.last = time.Time{}
	rs.count = 0
	rs.sum = 0
	rs.min = math.MaxFloat64
	rs.max = -math.MaxFloat64

	if rs.sketch != nil {
		// DDSketch has no Clear; build a fresh one.
		if sketch, err := ddsketch.NewDefaultDDSketch(rs.accuracy); err == nil {
			rs.sketch = sketch
		}
	}
}

// Collector holds one RateSketch per channel.
type Collector struct {
	sketches []*RateSketch
}

// NewCollector creates sketches for channelCount channels.
func NewCollector(channelCount int, accuracy float64) *Collector {
	c := &Collector{sketches: make([]*RateSketch, channelCount)}
	for i := range c.sketches {
		c.sketches[i] = NewRateSketch(i, accuracy)
	}
	return c
}

// Observe records a pulse for the given channel. Unknown channels are
// ignored; range policing belongs to the increment path.
func (c *Collector) Observe(channel int, at time.Time) {
	if channel < 0 || channel >= len(c.sketches) {
		return
	}
	c.sketches[channel].Observe(at)
}

// Results returns a summary per channel.
func (c *Collector) Results() []Result {
	out := make([]Result, len(c.sketches))
	for i, rs := range c.sketches {
		out[i] = rs.Result()
	}
	return out
}
