// Package table implements the fixed socket slot table of spec.md §3/§4.3:
// a fixed-size array of connection slots, index 0 reserved as invalid,
// touched only by the single reactor goroutine (spec.md §5) — so, unlike
// go-ublk's per-tag mutex slice, no locking is needed here at all.
package table

import "github.com/s2opc-go/sockets/internal/interfaces"

// InvalidFD marks a slot with no underlying OS handle.
const InvalidFD = -1

// State is one of the five socket slot states of spec.md §3.
type State int

const (
	Closed State = iota
	Connecting
	Connected
	Listening
	Accepted
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Listening:
		return "LISTENING"
	case Accepted:
		return "ACCEPTED"
	default:
		return "UNKNOWN"
	}
}

// Slot is one entry of the socket context table (spec.md §3).
type Slot struct {
	InUse bool

	// Idx is the slot's own index; set once at table construction and
	// never altered by GetFree/Close.
	Idx int

	ConnectionID int
	FD           int
	State        State

	IsServerConnection  bool
	ListenerSocketIdx   int
	ListenerConnections int

	WriteQueue    []*interfaces.Buffer
	IsNotWritable bool

	ConnectAddrs           []interfaces.Addr
	NextConnectAttemptAddr int
}

// Table is the fixed-size slot array, indices 1..N usable, index 0 always
// CLOSED and never handed out.
type Table struct {
	slots                     []*Slot
	maxConnectionsPerListener int
}

// New allocates a table of maxSockets slots (including the reserved index
// 0) with the given per-listener accepted-connection cap.
func New(maxSockets, maxConnectionsPerListener int) *Table {
	slots := make([]*Slot, maxSockets)
	for i := range slots {
		slots[i] = &Slot{Idx: i, FD: InvalidFD}
	}
	return &Table{slots: slots, maxConnectionsPerListener: maxConnectionsPerListener}
}

// Len returns the table's fixed capacity (including index 0).
func (t *Table) Len() int { return len(t.slots) }

// MaxConnectionsPerListener returns the configured per-listener accept cap.
func (t *Table) MaxConnectionsPerListener() int { return t.maxConnectionsPerListener }

// Get returns the in-use slot at idx, or false if idx is out of range, is
// the reserved index 0, or the slot is not currently allocated.
func (t *Table) Get(idx int) (*Slot, bool) {
	if idx <= 0 || idx >= len(t.slots) {
		return nil, false
	}
	s := t.slots[idx]
	if !s.InUse {
		return nil, false
	}
	return s, true
}

// Raw returns the slot at idx regardless of InUse, for callers (table tests,
// invariants checks) that need to inspect slot 0 or a freed slot. It still
// range-checks idx.
func (t *Table) Raw(idx int) (*Slot, bool) {
	if idx < 0 || idx >= len(t.slots) {
		return nil, false
	}
	return t.slots[idx], true
}

// GetFree finds the first unallocated slot starting at index 1, marks it
// in use, and returns it. isListener controls whether the slot's write
// queue starts nil (listeners never queue writes, spec.md §3 invariant).
func (t *Table) GetFree(isListener bool) (*Slot, bool) {
	for i := 1; i < len(t.slots); i++ {
		s := t.slots[i]
		if !s.InUse {
			s.InUse = true
			s.FD = InvalidFD
			s.State = Closed
			if !isListener {
				s.WriteQueue = nil
			}
			return s, true
		}
	}
	return nil, false
}

// Close implements spec.md §4.3 Close: closes the fd, drops the write
// queue and any pending connect addresses, decrements the parent
// listener's connection count if this was a server connection, and resets
// the slot to its zero state while preserving Idx.
func (t *Table) Close(idx int, raw interfaces.RawSocket) {
	s, ok := t.Raw(idx)
	if !ok || !s.InUse {
		return
	}
	if s.FD != InvalidFD && raw != nil {
		_ = raw.Close(s.FD)
	}
	if s.IsServerConnection {
		if listener, ok := t.Get(s.ListenerSocketIdx); ok && listener.ListenerConnections > 0 {
			listener.ListenerConnections--
		}
	}
	keptIdx := s.Idx
	*s = Slot{Idx: keptIdx, FD: InvalidFD}
}

// InUseIndices returns the indices of every currently allocated slot,
// index 0 excluded, in ascending order — used by the reactor to build its
// select sets each iteration.
func (t *Table) InUseIndices() []int {
	var out []int
	for i := 1; i < len(t.slots); i++ {
		if t.slots[i].InUse {
			out = append(out, i)
		}
	}
	return out
}
