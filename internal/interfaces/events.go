package interfaces

import "sync/atomic"

// Buffer is a single-owner byte payload moving through the core: either an
// outbound payload queued by an upstream WRITE event, or an inbound chunk
// produced by a read and handed upward via RCV_BYTES.
//
// Position tracks how many leading bytes of Data have already been handed
// to the OS on a previous partial write; it is meaningless for inbound
// buffers. Ownership transfers on enqueue: once a Buffer is handed to the
// core (via WRITE) or to upstream (via RCV_BYTES) the previous owner must
// not touch it again.
type Buffer struct {
	Data     []byte
	Position int
}

// Remaining returns the slice of Data not yet written out.
func (b *Buffer) Remaining() []byte {
	return b.Data[b.Position:]
}

// InputKind enumerates the events upstream sends into the core (spec.md §6).
type InputKind int

const (
	CreateListener InputKind = iota
	CreateClient
	AcceptedConnection
	Close
	CloseListener
	Write
)

func (k InputKind) String() string {
	switch k {
	case CreateListener:
		return "CREATE_LISTENER"
	case CreateClient:
		return "CREATE_CLIENT"
	case AcceptedConnection:
		return "ACCEPTED_CONNECTION"
	case Close:
		return "CLOSE"
	case CloseListener:
		return "CLOSE_LISTENER"
	case Write:
		return "WRITE"
	default:
		return "UNKNOWN_INPUT"
	}
}

// InputEvent is the tagged value described in spec.md §3: Params is either
// a URI string (CreateListener/CreateClient) or a *Buffer (Write), or nil.
type InputEvent struct {
	Kind   InputKind
	ID     int
	Params any
	Aux    int
}

// OutputKind enumerates the events the core emits to upstream (spec.md §6).
// A distinct Go type from InputKind keeps the two namespaces disjoint by
// construction (spec.md §9's "deliberately unspecified" numeric ranges).
type OutputKind int

const (
	ListenerOpened OutputKind = iota
	ListenerConnection
	ListenerFailure
	Connection
	Failure
	RcvBytes
)

func (k OutputKind) String() string {
	switch k {
	case ListenerOpened:
		return "LISTENER_OPENED"
	case ListenerConnection:
		return "LISTENER_CONNECTION"
	case ListenerFailure:
		return "LISTENER_FAILURE"
	case Connection:
		return "CONNECTION"
	case Failure:
		return "FAILURE"
	case RcvBytes:
		return "RCV_BYTES"
	default:
		return "UNKNOWN_OUTPUT"
	}
}

// OutputEvent is the tagged value emitted to the upstream OutputHandler;
// Params carries a *Buffer for RcvBytes and is nil otherwise.
type OutputEvent struct {
	Kind   OutputKind
	ID     int
	Params any
	Aux    int
}

// OutputHandler receives every output event the sockets core emits. It is
// invoked only from the reactor goroutine and must not block longer than
// upstream's own flow control requires (spec.md §5).
type OutputHandler interface {
	Handle(ev OutputEvent)
}

// OutputHandlerFunc adapts a plain function to an OutputHandler.
type OutputHandlerFunc func(ev OutputEvent)

func (f OutputHandlerFunc) Handle(ev OutputEvent) { f(ev) }

// HandlerRef is an atomically-swappable output handler pointer: Store may
// be called from any goroutine, and the reactor goroutine reads it via Load
// before every emit. A nil Load (nothing stored yet) simply drops the
// event. The root facade stores its metrics-forwarding handler here once;
// SetEventHandler swaps the upstream handler behind that one.
type HandlerRef struct {
	p atomic.Pointer[OutputHandler]
}

// Store atomically replaces the current handler.
func (r *HandlerRef) Store(h OutputHandler) {
	r.p.Store(&h)
}

// Load atomically returns the current handler, or nil if none was set.
func (r *HandlerRef) Load() OutputHandler {
	p := r.p.Load()
	if p == nil {
		return nil
	}
	return *p
}
