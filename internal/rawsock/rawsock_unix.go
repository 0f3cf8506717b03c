//go:build linux

// Package rawsock provides the concrete OS adapters implementing
// interfaces.RawSocket: this file is the production adapter built on
// golang.org/x/sys/unix, grounded on the non-blocking syscall sequences of
// gvisor's hostinet socket.go (Connect/Accept/Listen shape) and on
// go-ublk's style of wrapping raw fds directly rather than going through
// net.Conn/the runtime poller — the reactor owns polling itself via
// select(2), so a managed net.Conn would fight it for the fd.
package rawsock

import (
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/s2opc-go/sockets/internal/interfaces"
)

// listenBacklog is the backlog passed to listen(2).
const listenBacklog = 128

// Unix is the production interfaces.RawSocket backed by real OS sockets.
type Unix struct{}

// New returns the production raw socket adapter.
func New() *Unix { return &Unix{} }

var _ interfaces.RawSocket = (*Unix)(nil)

// Resolve uses the standard resolver (DNS is out of scope for a hand-rolled
// implementation) and converts the results into unix.Sockaddr-backed Addrs.
func (u *Unix) Resolve(host, port string) ([]interfaces.Addr, error) {
	var ips []net.IP
	if host == "" {
		ips = []net.IP{net.IPv4zero, net.IPv6unspecified}
	} else if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		addrs, err := net.LookupIP(host)
		if err != nil {
			return nil, err
		}
		ips = addrs
	}

	var p int
	if port != "" {
		n, err := parsePort(port)
		if err != nil {
			return nil, err
		}
		p = n
	}

	out := make([]interfaces.Addr, 0, len(ips))
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			var b [4]byte
			copy(b[:], v4)
			out = append(out, interfaces.Addr{
				Sockaddr: &unix.SockaddrInet4{Port: p, Addr: b},
				IsIPv6:   false,
			})
			continue
		}
		var b [16]byte
		copy(b[:], ip.To16())
		out = append(out, interfaces.Addr{
			Sockaddr: &unix.SockaddrInet6{Port: p, Addr: b},
			IsIPv6:   true,
		})
	}
	return out, nil
}

func parsePort(port string) (int, error) {
	n := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return 0, unix.EINVAL
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// NewFDSet returns a select(2)-ready fd set.
func (u *Unix) NewFDSet() interfaces.FDSet { return &fdSet{} }

// CreateNew opens a non-blocking TCP socket for addr's address family.
func (u *Unix) CreateNew(addr interfaces.Addr, reuse, nonBlocking bool) (int, error) {
	domain := unix.AF_INET
	if addr.IsIPv6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	if reuse {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return -1, err
		}
	}
	if nonBlocking {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			return -1, err
		}
	}
	return fd, nil
}

// BindAndListen binds fd to addr and starts listening on it.
func (u *Unix) BindAndListen(fd int, addr interfaces.Addr) error {
	sa, ok := addr.Sockaddr.(unix.Sockaddr)
	if !ok {
		return unix.EINVAL
	}
	if err := unix.Bind(fd, sa); err != nil {
		return err
	}
	return unix.Listen(fd, listenBacklog)
}

// Connect starts a non-blocking connect; EINPROGRESS is reported as
// wouldBlock so the caller defers to CheckAckConnect once fd is writable.
func (u *Unix) Connect(fd int, addr interfaces.Addr) (bool, error) {
	sa, ok := addr.Sockaddr.(unix.Sockaddr)
	if !ok {
		return false, unix.EINVAL
	}
	err := unix.Connect(fd, sa)
	if err == nil {
		return false, nil
	}
	if err == unix.EINPROGRESS {
		return true, nil
	}
	return false, err
}

// Accept accepts one pending connection, optionally setting the accepted
// fd non-blocking atomically via accept4(2).
func (u *Unix) Accept(fd int, nonBlocking bool) interfaces.AcceptResult {
	flags := 0
	if nonBlocking {
		flags = unix.SOCK_NONBLOCK
	}
	nfd, _, err := unix.Accept4(fd, flags)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return interfaces.AcceptResult{WouldBlock: true}
	}
	if err != nil {
		return interfaces.AcceptResult{Err: err}
	}
	return interfaces.AcceptResult{FD: nfd}
}

// Read performs one non-blocking read.
func (u *Unix) Read(fd int, buf []byte) interfaces.ReadResult {
	n, err := unix.Read(fd, buf)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return interfaces.ReadResult{WouldBlock: true}
	case err != nil:
		return interfaces.ReadResult{Err: err}
	case n == 0:
		return interfaces.ReadResult{Closed: true}
	default:
		return interfaces.ReadResult{N: n}
	}
}

// Write performs one non-blocking write.
func (u *Unix) Write(fd int, buf []byte) interfaces.WriteResult {
	n, err := unix.Write(fd, buf)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return interfaces.WriteResult{WouldBlock: true}
	case err != nil:
		return interfaces.WriteResult{Err: err}
	default:
		return interfaces.WriteResult{N: n}
	}
}

// BytesToRead reports the kernel's FIONREAD count for fd.
func (u *Unix) BytesToRead(fd int) (int, bool) {
	n, err := unix.IoctlGetInt(fd, unix.FIONREAD)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CheckAckConnect reports the deferred connect(2) outcome via SO_ERROR.
func (u *Unix) CheckAckConnect(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

// Close releases fd.
func (u *Unix) Close(fd int) error {
	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}

// Select blocks until a descriptor is ready or timeout elapses.
func (u *Unix) Select(readSet, writeSet, exceptSet interfaces.FDSet, timeout time.Duration) (int, error) {
	r, _ := readSet.(*fdSet)
	w, _ := writeSet.(*fdSet)
	e, _ := exceptSet.(*fdSet)

	var tv unix.Timeval
	tv.Sec = int64(timeout / time.Second)
	tv.Usec = int64((timeout % time.Second) / time.Microsecond)

	nfd := 0
	for _, s := range []*fdSet{r, w, e} {
		if s != nil && s.max+1 > nfd {
			nfd = s.max + 1
		}
	}

	var rawR, rawW, rawE *unix.FdSet
	if r != nil {
		rawR = &r.set
	}
	if w != nil {
		rawW = &w.set
	}
	if e != nil {
		rawE = &e.set
	}

	for {
		n, err := unix.Select(nfd, rawR, rawW, rawE, &tv)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// fdSet implements interfaces.FDSet over unix.FdSet's raw bitmap.
type fdSet struct {
	set unix.FdSet
	max int
}

func (s *fdSet) Clear() {
	s.set = unix.FdSet{}
	s.max = 0
}

func (s *fdSet) Add(fd int) {
	if fd < 0 {
		return
	}
	word := fd / 64
	bit := uint(fd % 64)
	s.set.Bits[word] |= 1 << bit
	if fd > s.max {
		s.max = fd
	}
}

func (s *fdSet) IsSet(fd int) bool {
	if fd < 0 {
		return false
	}
	word := fd / 64
	bit := uint(fd % 64)
	return s.set.Bits[word]&(1<<bit) != 0
}
