// Package interfaces holds the contracts internal packages are built
// against, kept separate from the root package to avoid import cycles
// between it and internal/*.
package interfaces

import "time"

// Addr is one resolved candidate address for a connect or listen attempt.
type Addr struct {
	// Sockaddr is an opaque, implementation-specific address value (a
	// *unix.SockaddrInet4/*unix.SockaddrInet6 for the real adapter, a
	// bare string key for the fake one).
	Sockaddr any
	IsIPv6   bool
}

// ReadResult is the outcome of one non-blocking Read call.
type ReadResult struct {
	N          int
	WouldBlock bool
	Closed     bool
	Err        error
}

// WriteResult is the outcome of one non-blocking Write call.
type WriteResult struct {
	N          int
	WouldBlock bool
	Err        error
}

// AcceptResult is the outcome of one non-blocking Accept call.
type AcceptResult struct {
	FD         int
	WouldBlock bool
	Err        error
}

// FDSet is a small, implementation-agnostic readable/writable/exceptional
// descriptor set, built fresh by the reactor on every iteration.
type FDSet interface {
	Clear()
	Add(fd int)
	IsSet(fd int) bool
}

// RawSocket is the non-blocking, OS-portable socket adapter contract of
// spec.md §4.2. Every method must be safe to call only from the reactor
// goroutine; none of them may block beyond Select's timeout.
type RawSocket interface {
	// Resolve turns a host/port pair into a list of candidate addresses.
	// host == "" means "any interface" (used for listen-all-interfaces).
	Resolve(host, port string) ([]Addr, error)

	// NewFDSet returns an empty, implementation-specific fd-set.
	NewFDSet() FDSet

	// CreateNew creates a non-blocking socket fit for addr's family.
	CreateNew(addr Addr, reuse, nonBlocking bool) (fd int, err error)

	// BindAndListen binds fd to addr and starts listening on it.
	BindAndListen(fd int, addr Addr) error

	// Connect starts a non-blocking connect to addr. wouldBlock is true
	// when the connect is in flight and must be confirmed later via
	// CheckAckConnect once fd becomes writable.
	Connect(fd int, addr Addr) (wouldBlock bool, err error)

	// Accept accepts one pending connection on listener fd.
	Accept(fd int, nonBlocking bool) AcceptResult

	// Read performs one non-blocking read into buf.
	Read(fd int, buf []byte) ReadResult

	// Write performs one non-blocking write of buf.
	Write(fd int, buf []byte) WriteResult

	// BytesToRead reports how many bytes the kernel has queued for fd, if
	// known; ok is false when the adapter cannot answer (e.g. the fake).
	BytesToRead(fd int) (n int, ok bool)

	// CheckAckConnect reports the deferred result of a Connect call once
	// fd is writable, via SO_ERROR or an equivalent mechanism.
	CheckAckConnect(fd int) error

	// Close releases fd. Closing an already-closed or invalid fd is a
	// no-op.
	Close(fd int) error

	// Select blocks (bounded by timeout) until one of the descriptors in
	// readSet/writeSet/exceptSet is ready, or timeout elapses, returning
	// the number of ready descriptors. Implementations are allowed, per
	// spec.md §4.7, to be called with a zero timeout in the steady state.
	Select(readSet, writeSet, exceptSet FDSet, timeout time.Duration) (int, error)
}

// Logger is the minimal structured-logging contract internal packages are
// written against, satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// Waker lets any goroutine signal the reactor goroutine by making ReadFD
// readable. ReadFD, if non-negative, is added to the reactor's read set
// every iteration; Drain is called once that fd reports readable.
type Waker interface {
	ReadFD() int
	Wake() error
	Drain()
	Close() error
}

// MetricsSink receives the counters that have no corresponding OutputEvent
// and so can't be observed from the facade side alone (spec.md's output
// event table has nothing for "bytes actually written" or "write queue
// depth changed"). Optional: the dispatcher checks for a nil sink before
// calling out to one, so internal packages never depend on metrics being
// configured.
type MetricsSink interface {
	ObserveBytesWritten(n int)
	ObserveQueueDepthDelta(delta int)
	ObserveListenerReject()
}
