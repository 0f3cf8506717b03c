//go:build linux

package rawsock

import "golang.org/x/sys/unix"

// SelfPipe wakes the reactor's select(2) loop from another goroutine
// (spec.md §5: EnqueueEvent may be called from any goroutine, but select
// only notices new work on an fd transition). A connected AF_UNIX
// SOCK_STREAM pair serves as the wakeup channel: simpler than the loopback
// TCP listener/accept dance and with no bind/listen race to lose, while
// keeping the same "one more fd in the read set" shape the reactor already
// expects for every other connection.
type SelfPipe struct {
	readFD  int
	writeFD int
}

// NewSelfPipe creates a connected, non-blocking socket pair.
func NewSelfPipe() (*SelfPipe, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	return &SelfPipe{readFD: fds[0], writeFD: fds[1]}, nil
}

// ReadFD is the descriptor the reactor adds to its select read set.
func (p *SelfPipe) ReadFD() int { return p.readFD }

// Wake writes a single byte, waking a blocked select(2) on ReadFD. Safe to
// call from any goroutine; EAGAIN (pipe already has a pending wakeup byte)
// is not an error.
func (p *SelfPipe) Wake() error {
	_, err := unix.Write(p.writeFD, []byte{0})
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return nil
	}
	return err
}

// Drain empties every pending wakeup byte so the next select(2) blocks
// again until the next Wake.
func (p *SelfPipe) Drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.readFD, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Close releases both ends of the pair.
func (p *SelfPipe) Close() error {
	err1 := unix.Close(p.readFD)
	err2 := unix.Close(p.writeFD)
	if err1 != nil {
		return err1
	}
	return err2
}
