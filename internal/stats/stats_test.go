package stats

import (
	"testing"
	"time"
)

func TestRateSketch_Gaps(t *testing.T) {
	rs := NewRateSketch(0, 0.01)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Four pulses, one second apart: three gap samples of 1s.
	for i := 0; i < 4; i++ {
		rs.Observe(base.Add(time.Duration(i) * time.Second))
	}

	r := rs.Result()
	if r.Count != 3 {
		t.Fatalf("Count = %d, want 3", r.Count)
	}
	if r.Avg < 0.99 || r.Avg > 1.01 {
		t.Errorf("Avg = %f, want ~1.0", r.Avg)
	}
	if r.Min < 0.99 || r.Max > 1.01 {
		t.Errorf("Min/Max = %f/%f, want ~1.0", r.Min, r.Max)
	}
	// DDSketch guarantees 1% relative accuracy.
	if r.P50 < 0.98 || r.P50 > 1.02 {
		t.Errorf("P50 = %f, want ~1.0", r.P50)
	}
}

func TestRateSketch_FirstPulseOnlyBaselines(t *testing.T) {
	rs := NewRateSketch(0, 0.01)
	rs.Observe(time.Now())

	if r := rs.Result(); r.Count != 0 {
		t.Errorf("Count after single pulse = %d, want 0", r.Count)
	}
}

func TestRateSketch_Reset(t *testing.T) {
	rs := NewRateSketch(3, 0.01)
	base := time.Now()
	rs.Observe(base)
	rs.Observe(base.Add(time.Second))

	rs.Reset()
	r := rs.Result()
	if r.Count != 0 || r.Avg != 0 {
		t.Errorf("after reset: %+v", r)
	}
	if r.Channel != 3 {
		t.Errorf("Channel = %d, want 3", r.Channel)
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector(2, 0.01)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		c.Observe(0, base.Add(time.Duration(i)*time.Second))
	}
	// Out-of-range channels are ignored, not fatal.
	c.Observe(5, base)
	c.Observe(-1, base)

	results := c.Results()
	if len(results) != 2 {
		t.Fatalf("Results() len = %d, want 2", len(results))
	}
	if results[0].Count != 2 {
		t.Errorf("channel 0 Count = %d, want 2", results[0].Count)
	}
	if results[1].Count != 0 {
		t.Errorf("channel 1 Count = %d, want 0", results[1].Count)
	}
}
