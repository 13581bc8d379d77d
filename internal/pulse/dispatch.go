package pulse

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/qpulse/pulsemeter/internal/errors"
)

// IncrementFunc applies one pulse to a channel. Out-of-range errors are
// recoverable: the event is discarded and counted, other channels are
// unaffected.
type IncrementFunc func(channel int) error

// Observer sees every accepted pulse event. Used by the stats sketch.
type Observer func(ev Event)

// Dispatcher drains the ring and applies events to the channel set.
type Dispatcher struct {
	ring      *Ring
	increment IncrementFunc
	observer  Observer

	pollInterval time.Duration
	batchSize    int

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	rejected atomic.Int64
}

// NewDispatcher creates a Dispatcher over the given ring.
func NewDispatcher(ring *Ring, inc IncrementFunc) *Dispatcher {
	return &Dispatcher{
		ring:         ring,
		increment:    inc,
		pollInterval: 2 * time.Millisecond,
		batchSize:    256,
		shutdown:     make(chan struct{}),
	}
}

// SetObserver registers an observer for accepted events.
func (d *Dispatcher) SetObserver(obs Observer) {
	d.observer = obs
}

// Start starts the drain loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.loop()
}

// Stop drains remaining events and stops the loop.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.shutdown) })
	d.wg.Wait()
}

// Rejected returns the number of events discarded for bad channel indexes.
func (d *Dispatcher) Rejected() int64 {
	return d.rejected.Load()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.drain()
		case <-d.shutdown:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		events := d.ring.PopN(d.batchSize)
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			if err := d.increment(ev.Channel); err != nil && !errors.IsWarning(err) {
				d.rejected.Add(1)
				if errors.IsOutOfRange(err) {
					log.Warn("pulse discarded", "channel", ev.Channel, "error", err)
					continue
				}
				log.Error("increment failed", "channel", ev.Channel, "error", err)
				continue
			}
			// Warnings mean the pulse was applied with degraded minute
			// resolution, so the observer still sees it.
			if d.observer != nil {
				d.observer(ev)
			}
		}
	}
}
