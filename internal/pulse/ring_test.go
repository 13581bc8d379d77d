package pulse

import (
	"testing"
	"time"
)

func TestRing_PushPop(t *testing.T) {
	r := NewRing(4)

	for i := 0; i < 3; i++ {
		if !r.Push(Event{Channel: i}) {
			t.Fatalf("push %d failed", i)
		}
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}

	for i := 0; i < 3; i++ {
		ev, ok := r.Pop()
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		if ev.Channel != i {
			t.Errorf("pop %d: channel = %d", i, ev.Channel)
		}
	}

	if _, ok := r.Pop(); ok {
		t.Error("pop from empty ring succeeded")
	}
}

func TestRing_DropsWhenFull(t *testing.T) {
	r := NewRing(2)

	r.Push(Event{Channel: 0})
	r.Push(Event{Channel: 1})
	if r.Push(Event{Channel: 2}) {
		t.Error("push into full ring succeeded")
	}

	_, _, dropped := r.Stats()
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestRing_PopN(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 5; i++ {
		r.Push(Event{Channel: i})
	}

	batch := r.PopN(3)
	if len(batch) != 3 {
		t.Fatalf("PopN(3) returned %d events", len(batch))
	}
	for i, ev := range batch {
		if ev.Channel != i {
			t.Errorf("batch[%d].Channel = %d, want %d", i, ev.Channel, i)
		}
	}

	rest := r.PopN(10)
	if len(rest) != 2 {
		t.Errorf("PopN(10) returned %d events, want 2", len(rest))
	}
	if r.PopN(1) != nil {
		t.Error("PopN on empty ring returned events")
	}
}

func TestRing_WrapAround(t *testing.T) {
	r := NewRing(3)

	for round := 0; round < 5; round++ {
		for i := 0; i < 3; i++ {
			if !r.Push(Event{Channel: round*3 + i}) {
				t.Fatalf("round %d push %d failed", round, i)
			}
		}
		batch := r.PopN(3)
		if len(batch) != 3 {
			t.Fatalf("round %d: got %d events", round, len(batch))
		}
		for i, ev := range batch {
			if ev.Channel != round*3+i {
				t.Errorf("round %d batch[%d] = %d", round, i, ev.Channel)
			}
		}
	}
}

func TestDispatcher_DrainsToIncrement(t *testing.T) {
	r := NewRing(64)

	var applied []int
	done := make(chan struct{})
	d := NewDispatcher(r, func(ch int) error {
		applied = append(applied, ch)
		if len(applied) == 5 {
			close(done)
		}
		return nil
	})

	var observed int
	d.SetObserver(func(Event) { observed++ })

	for i := 0; i < 5; i++ {
		r.Push(Event{Channel: i, At: time.Now()})
	}

	d.Start()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not drain")
	}
	d.Stop()

	if len(applied) != 5 || observed != 5 {
		t.Errorf("applied %d observed %d, want 5/5", len(applied), observed)
	}
	for i, ch := range applied {
		if ch != i {
			t.Errorf("applied[%d] = %d", i, ch)
		}
	}
}
