// Package constants holds the tuning knobs of the sockets core.
//
// All of these are fixed at Initialize time; spec.md explicitly rules out
// dynamic reconfiguration of MaxSockets once the reactor is running.
package constants

// Sizing constants.
const (
	// MaxSockets is the size of the socket slot table, including the
	// reserved, never-handed-out index 0.
	MaxSockets = 256

	// MaxSocketsConnections is the per-listener cap on simultaneously
	// alive accepted connections. A new accept past this cap is refused.
	MaxSocketsConnections = 64

	// MinReadBuffer is the smallest buffer ever allocated for a single
	// read, regardless of what bytes_to_read reports.
	MinReadBuffer = 512

	// MaxBuffer is the largest chunk ever read in one call, regardless of
	// how many bytes the kernel says are queued.
	MaxBuffer = 64 * 1024

	// URIMaxLen is the maximum accepted length, in bytes, of an
	// opc.tcp://... URI string (spec.md §4.1).
	URIMaxLen = 4096
)

// Reactor timing constants.
//
// The reactor itself never sleeps: select is always called with a zero
// timeout and relies solely on the self-pipe for wake-ups (spec.md §4.7,
// §9). The self-pipe is a connected unix.Socketpair, not a loopback
// accept, so there is no handshake and nothing here needs a timeout.
const (
	// SignalDrainMax is the per-iteration drain bound of spec.md §4.7
	// step 5. SelfPipe.Drain does not use it: it reads until the pair is
	// empty.
	SignalDrainMax = 100
)
