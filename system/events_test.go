package system

import "testing"

type damageEvent struct {
	Target uint64
	Amount int
}

func TestEventVisibleToReaderBeforeSwap(t *testing.T) {
	q := NewEventQueue[damageEvent]()
	q.Send(damageEvent{Target: 1, Amount: 10})
	if q.Len() != 1 {
		t.Fatalf("expected the sent event visible before SwapBuffers, got Len=%d", q.Len())
	}

	r := NewReader[damageEvent]()
	got := r.Read(q)
	if len(got) != 1 || got[0].Amount != 10 {
		t.Fatalf("expected a reader created before any SwapBuffers to see the event immediately, got %v", got)
	}

	q.SwapBuffers()
	if q.Len() != 1 {
		t.Fatalf("expected the event still visible after swap (now in previous), got %d", q.Len())
	}
}

func TestReaderSeesMidStreamSendAfterPreviousDrained(t *testing.T) {
	q := NewEventQueue[damageEvent]()
	q.Send(damageEvent{Amount: 1})
	q.SwapBuffers()

	r := NewReader[damageEvent]()
	first := r.Read(q)
	if len(first) != 1 {
		t.Fatalf("expected 1 event from previous, got %d", len(first))
	}

	q.Send(damageEvent{Amount: 2})
	second := r.Read(q)
	if len(second) != 1 || second[0].Amount != 2 {
		t.Fatalf("expected the mid-stream send in current to be visible without another swap, got %v", second)
	}
}

func TestEventQueueRetainedForOneFrameOnly(t *testing.T) {
	q := NewEventQueue[damageEvent]()
	q.Send(damageEvent{Target: 1, Amount: 5})
	q.SwapBuffers()
	if q.Len() != 1 {
		t.Fatalf("expected event readable the frame after it was sent")
	}
	q.SwapBuffers()
	if q.Len() != 0 {
		t.Fatalf("expected event gone two swaps after it was sent, got %d", q.Len())
	}
}

func TestReaderDrainsEveryEventExactlyOnce(t *testing.T) {
	q := NewEventQueue[damageEvent]()
	q.Send(damageEvent{Amount: 1})
	q.Send(damageEvent{Amount: 2})
	q.SwapBuffers()

	r := NewReader[damageEvent]()
	first := r.Read(q)
	if len(first) != 2 {
		t.Fatalf("expected 2 events on first read, got %d", len(first))
	}
	second := r.Read(q)
	if len(second) != 0 {
		t.Fatalf("expected no events left for reader on second read, got %d", len(second))
	}
}

func TestEventsRegistryQueueForCreatesOnce(t *testing.T) {
	reg := NewEvents()
	a := QueueFor[damageEvent](reg)
	b := QueueFor[damageEvent](reg)
	if a != b {
		t.Fatalf("expected QueueFor to return the same queue for repeated calls with the same type")
	}
}

func TestEventsSwapAllSwapsEveryQueue(t *testing.T) {
	reg := NewEvents()
	q := QueueFor[damageEvent](reg)
	q.Send(damageEvent{Amount: 7})
	reg.SwapAll()
	if q.Len() != 1 {
		t.Fatalf("expected SwapAll to swap the registered queue, got Len=%d", q.Len())
	}
}
