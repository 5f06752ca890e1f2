// Package queue implements the engine's FIFO send queue.
package queue

import (
	"sync/atomic"

	"github.com/izznatsir/state-designer/event"
)

// Queue is a first-in-first-out queue of events. The slice is held behind an
// atomic pointer, so a reader never sees a half-written slice header. Push and
// Pop each load and then store the pointer as two separate steps, so calls
// running at the same time on different goroutines can lose an event.
type Queue struct {
	events atomic.Pointer[[]event.Event]
}

// Pop removes and returns the oldest event. The second return is false when
// the queue is empty.
func (q *Queue) Pop() (event.Event, bool) {
	events := *q.events.Load()
	if len(events) == 0 {
		return event.Event{}, false
	}
	head := events[0]
	events = events[1:]
	q.events.Store(&events)
	return head, true
}

func (q *Queue) Push(e event.Event) {
	events := append(*q.events.Load(), e)
	q.events.Store(&events)
}

func New(maybeSize ...int) *Queue {
	var events []event.Event
	if len(maybeSize) > 0 {
		events = make([]event.Event, 0, maybeSize[0])
	}
	q := &Queue{}
	q.events.Store(&events)
	return q
}
