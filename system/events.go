package system

import "reflect"

// EventQueue is a double-buffered event channel (spec §4.5): writers
// append to the current buffer; readers drain previous then current, so
// an event is visible to readers the instant it's sent, not only after
// the next SwapBuffers. Every event carries an implicit global sequence
// id (previousStart/currentStart track where each buffer starts in that
// sequence) so a reader's cursor stays meaningful across a swap even
// though the underlying slices are replaced wholesale.
type EventQueue[T any] struct {
	current       []T
	previous      []T
	previousStart uint64
	currentStart  uint64
}

// NewEventQueue returns an empty event queue.
func NewEventQueue[T any]() *EventQueue[T] {
	return &EventQueue[T]{}
}

// Send appends an event to the current frame's buffer. It is visible to
// readers (and to Len/At) immediately, before any SwapBuffers.
func (q *EventQueue[T]) Send(ev T) {
	q.current = append(q.current, ev)
}

// SwapBuffers retires the current buffer to previous and starts a fresh
// current buffer (spec §4.5 step run once per scheduler update). Events
// are retained for exactly the frame after they were sent: any reader
// that hasn't drained them by the next SwapBuffers misses them, since
// the slice backing the old previous buffer is dropped here.
func (q *EventQueue[T]) SwapBuffers() {
	q.previous = q.current
	q.previousStart = q.currentStart
	q.currentStart = q.previousStart + uint64(len(q.previous))
	q.current = make([]T, 0, len(q.previous))
}

// Len reports how many events are available to readers this frame,
// counting previous then current.
func (q *EventQueue[T]) Len() int { return len(q.previous) + len(q.current) }

// At returns the event at stable index i within the combined
// previous-then-current readable buffer.
func (q *EventQueue[T]) At(i int) T {
	if i < len(q.previous) {
		return q.previous[i]
	}
	return q.current[i-len(q.previous)]
}

// Reader tracks one consumer's position in an EventQueue's readable
// buffer (spec §4.5's per-reader cursor), as a global sequence id
// rather than a slice index so it survives a SwapBuffers correctly.
type Reader[T any] struct {
	cursor uint64
}

// NewReader returns a reader starting at the front of whatever is
// currently readable.
func NewReader[T any]() *Reader[T] {
	return &Reader[T]{}
}

// Read drains every event the reader hasn't yet seen, previous then
// current. A reader created before any SwapBuffers still observes
// events already sent to the current buffer.
func (r *Reader[T]) Read(q *EventQueue[T]) []T {
	total := q.currentStart + uint64(len(q.current))
	if r.cursor >= total {
		r.cursor = total
		return nil
	}

	start := r.cursor
	if start < q.previousStart {
		// Events between r.cursor and previousStart were retired by an
		// intervening SwapBuffers before this reader drained them;
		// they're gone, not replayable.
		start = q.previousStart
	}

	var out []T
	prevEnd := q.previousStart + uint64(len(q.previous))
	if start < prevEnd {
		out = append(out, q.previous[start-q.previousStart:]...)
		start = prevEnd
	}
	if start < total {
		out = append(out, q.current[start-q.currentStart:]...)
	}
	r.cursor = total
	return out
}

// Events is a type-keyed registry of event queues, so systems can look
// up an EventQueue[T] by T without the caller having to thread it
// through manually (spec §4.5).
type Events struct {
	queues map[reflect.Type]any
}

// NewEvents returns an empty event registry.
func NewEvents() *Events {
	return &Events{queues: make(map[reflect.Type]any)}
}

func eventKey[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}

// QueueFor returns the EventQueue[T] registered under T, creating it on
// first use.
func QueueFor[T any](e *Events) *EventQueue[T] {
	key := eventKey[T]()
	if q, ok := e.queues[key]; ok {
		return q.(*EventQueue[T])
	}
	q := NewEventQueue[T]()
	e.queues[key] = q
	return q
}

// SwapAll swaps every registered queue's buffers; the scheduler calls
// this once per update alongside command-buffer flush and tick advance
// (spec §4.9).
func (e *Events) SwapAll() {
	for _, q := range e.queues {
		if s, ok := q.(interface{ SwapBuffers() }); ok {
			s.SwapBuffers()
		}
	}
}
