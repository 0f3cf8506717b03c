package sockets

import "sync"

// RecordingHandler is an OutputHandler that stores every event it receives,
// for use in tests driving a Core end to end. Grounded on go-ublk's
// testing.go MockBackend (mutex-guarded struct, call tracking, a Reset, no
// hidden concurrency of its own).
type RecordingHandler struct {
	mu     sync.Mutex
	events []OutputEvent
}

// NewRecordingHandler returns an empty RecordingHandler.
func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{}
}

var _ OutputHandler = (*RecordingHandler)(nil)

// Handle implements OutputHandler.
func (r *RecordingHandler) Handle(ev OutputEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of every event recorded so far, in arrival order.
func (r *RecordingHandler) Events() []OutputEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OutputEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events have been recorded so far.
func (r *RecordingHandler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset clears every recorded event.
func (r *RecordingHandler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
