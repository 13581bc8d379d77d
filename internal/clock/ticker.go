package clock

import (
	"sync"
	"time"

	"github.com/qpulse/pulsemeter/internal/logging"
)

var log = logging.Component("clock")

// TickFunc receives the current calendar breakdown once per tick interval.
type TickFunc func(Calendar)

// Ticker drives the rollover engine from wall time. It samples the system
// clock (or an injected source) at a fixed interval and hands the breakdown
// to the tick function. Duplicate delivery within a minute is harmless: the
// rollover engine suppresses repeats itself.
type Ticker struct {
	interval time.Duration
	now      func() time.Time
	fn       TickFunc

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewTicker creates a Ticker that invokes fn every interval.
func NewTicker(interval time.Duration, fn TickFunc) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		interval: interval,
		now:      time.Now,
		fn:       fn,
		shutdown: make(chan struct{}),
	}
}

// SetNowFunc replaces the time source. For testing.
func (t *Ticker) SetNowFunc(now func() time.Time) {
	t.now = now
}

// Start starts the tick loop.
func (t *Ticker) Start() {
	t.wg.Add(1)
	go t.loop()
	log.Info("clock started", "interval", t.interval)
}

// Stop stops the tick loop and waits for it to exit.
func (t *Ticker) Stop() {
	t.once.Do(func() { close(t.shutdown) })
	t.wg.Wait()
	log.Info("clock stopped")
}

func (t *Ticker) loop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	// Deliver one breakdown immediately so a daemon started exactly on a
	// minute boundary does not miss it.
	t.fn(FromTime(t.now()))

	for {
		select {
		case <-ticker.C:
			t.fn(FromTime(t.now()))
		case <-t.shutdown:
			return
		}
	}
}
