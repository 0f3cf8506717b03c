package queue

import (
	"sync"

	"github.com/s2opc-go/sockets/internal/interfaces"
)

// InputQueue is the MPSC event queue of spec.md §5: any number of upstream
// goroutines call Enqueue concurrently, while only the reactor goroutine
// calls Drain. A plain mutex-guarded slice is enough here — the reactor
// drains the whole backlog once per select iteration rather than paying a
// channel receive per event, and producers never block.
type InputQueue struct {
	mu     sync.Mutex
	events []interfaces.InputEvent
}

// NewInputQueue returns an empty queue.
func NewInputQueue() *InputQueue {
	return &InputQueue{}
}

// Enqueue appends ev to the queue. It never blocks and never fails: the
// queue grows as needed, matching spec.md §5's statement that producers
// must never be held up by the reactor's pace.
func (q *InputQueue) Enqueue(ev interfaces.InputEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Drain removes and returns every event currently queued, in FIFO order,
// leaving the queue empty. Called once per reactor iteration.
func (q *InputQueue) Drain() []interfaces.InputEvent {
	q.mu.Lock()
	if len(q.events) == 0 {
		q.mu.Unlock()
		return nil
	}
	out := q.events
	q.events = nil
	q.mu.Unlock()
	return out
}

// Len reports the number of events currently queued. Intended for metrics
// and tests; the reactor itself always uses Drain.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
