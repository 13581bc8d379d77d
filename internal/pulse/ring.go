// Package pulse provides pulse event delivery: sources emit Events into a
// fixed-capacity ring, and a dispatcher drains the ring into the channel
// set's increment path.
//
// The ring decouples the latency-sensitive source side from everything
// downstream: a push never blocks, and when the ring is full events are
// dropped and counted rather than stalling the producer.
package pulse

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is a single pulse on one channel.
type Event struct {
	Channel int
	At      time.Time
}

// Ring is a thread-safe circular buffer for pulse events.
// It uses a simple mutex-based approach for correctness.
type Ring struct {
	mu       sync.Mutex
	data     []Event
	head     int64 // Next write position
	tail     int64 // Oldest data position
	count    int64 // Current number of elements
	capacity int64

	// Statistics
	pushCount atomic.Int64
	popCount  atomic.Int64
	dropCount atomic.Int64
}

// NewRing creates a Ring with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Ring{
		data:     make([]Event, capacity),
		capacity: int64(capacity),
	}
}

// Push adds an event to the ring.
// Returns false if the ring is full and the event was dropped.
func (r *Ring) Push(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count >= r.capacity {
		r.dropCount.Add(1)
		return false
	}

	idx := r.head % r.capacity
	r.data[idx] = ev
	r.head++
	r.count++
	r.pushCount.Add(1)

	return true
}

// Pop removes and returns the oldest event.
// Returns false if the ring is empty.
func (r *Ring) Pop() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return Event{}, false
	}

	idx := r.tail % r.capacity
	ev := r.data[idx]
	r.tail++
	r.count--
	r.popCount.Add(1)

	return ev, true
}

// PopN removes and returns up to n oldest events.
func (r *Ring) PopN(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 || n <= 0 {
		return nil
	}

	count := int64(n)
	if count > r.count {
		count = r.count
	}

	result := make([]Event, count)
	for i := int64(0); i < count; i++ {
		idx := (r.tail + i) % r.capacity
		result[i] = r.data[idx]
	}

	r.tail += count
	r.count -= count
	r.popCount.Add(count)

	return result
}

// Len returns the current number of buffered events.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.count)
}

// Stats returns push, pop, and drop totals.
func (r *Ring) Stats() (pushed, popped, dropped int64) {
	return r.pushCount.Load(), r.popCount.Load(), r.dropCount.Load()
}
