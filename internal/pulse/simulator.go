package pulse

import (
	"math/rand"
	"sync"
	"time"

	"github.com/qpulse/pulsemeter/internal/logging"
)

var log = logging.Component("pulse")

// ChannelRate configures one simulated channel.
type ChannelRate struct {
	Channel       int
	RatePerMinute int
}

// Simulator emits synthetic pulse streams into a Ring, one goroutine per
// channel. Gaps between pulses are exponentially distributed around the
// configured rate, which is a reasonable stand-in for the arrival pattern of
// a real utility meter. Each stream starts with random jitter so channels do
// not pulse in lockstep.
type Simulator struct {
	ring  *Ring
	rates []ChannelRate

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewSimulator creates a Simulator feeding the given ring.
func NewSimulator(ring *Ring, rates []ChannelRate) *Simulator {
	return &Simulator{
		ring:     ring,
		rates:    rates,
		shutdown: make(chan struct{}),
	}
}

// Start launches one pulse stream per configured channel.
func (s *Simulator) Start() {
	for _, cr := range s.rates {
		if cr.RatePerMinute <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.stream(cr)
	}
	log.Info("simulator started", "channels", len(s.rates))
}

// Stop stops all streams and waits for them to exit.
func (s *Simulator) Stop() {
	s.once.Do(func() { close(s.shutdown) })
	s.wg.Wait()
	log.Info("simulator stopped")
}

func (s *Simulator) stream(cr ChannelRate) {
	defer s.wg.Done()

	mean := time.Minute / time.Duration(cr.RatePerMinute)

	// Initial jitter to spread the streams out.
	timer := time.NewTimer(time.Duration(rand.Int63n(int64(mean) + 1)))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if !s.ring.Push(Event{Channel: cr.Channel, At: time.Now()}) {
				log.Debug("pulse dropped, ring full", "channel", cr.Channel)
			}
			timer.Reset(expGap(mean))
		case <-s.shutdown:
			return
		}
	}
}

// expGap draws an exponentially distributed gap with the given mean,
// clamped to keep pathological draws from stalling a stream.
func expGap(mean time.Duration) time.Duration {
	gap := time.Duration(rand.ExpFloat64() * float64(mean))
	if gap < time.Millisecond {
		gap = time.Millisecond
	}
	if gap > 10*mean {
		gap = 10 * mean
	}
	return gap
}
