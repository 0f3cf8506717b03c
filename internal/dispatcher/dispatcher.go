// Package dispatcher implements the sockets event manager of spec.md
// §4.5/§4.6: the state machines driving CREATE_LISTENER, CREATE_CLIENT,
// ACCEPTED_CONNECTION, CLOSE, CLOSE_LISTENER, WRITE and the internal
// readiness events the reactor classifies. Generalized from go-ublk's
// internal/queue/runner.go, whose per-tag TagState machine (kernel owns /
// user owns / commit in flight, advanced by completion events under a
// per-tag mutex) is the same shape as this package's 5-state socket slot
// machine advanced by readiness events — simplified here to no locking at
// all, since every call into this package happens on the single reactor
// goroutine (spec.md §5).
package dispatcher

import (
	"errors"

	"github.com/s2opc-go/sockets/internal/interfaces"
	"github.com/s2opc-go/sockets/internal/table"
	"github.com/s2opc-go/sockets/internal/uri"
)

// errZeroWrite is treated as a hard error per spec.md §4.6 TreatWriteBuffer:
// a write that returns 0 bytes without blocking never happens on a healthy
// non-blocking socket and signals the peer is gone.
var errZeroWrite = errors.New("dispatcher: write returned 0 bytes without blocking")

// Dispatcher owns no goroutine of its own; the reactor calls Dispatch and
// the Handle* methods from its single loop iteration.
type Dispatcher struct {
	tbl     *table.Table
	raw     interfaces.RawSocket
	handler *interfaces.HandlerRef
	log     interfaces.Logger
	metrics interfaces.MetricsSink
}

// New builds a Dispatcher over tbl (the slot table) and raw (the socket
// adapter), emitting output events through handler.
func New(tbl *table.Table, raw interfaces.RawSocket, handler *interfaces.HandlerRef, log interfaces.Logger) *Dispatcher {
	return &Dispatcher{tbl: tbl, raw: raw, handler: handler, log: log}
}

// SetMetrics installs an optional sink for the counters no OutputEvent
// carries. Nil uninstalls it.
func (d *Dispatcher) SetMetrics(m interfaces.MetricsSink) {
	d.metrics = m
}

func (d *Dispatcher) emit(ev interfaces.OutputEvent) {
	h := d.handler.Load()
	if h == nil {
		return
	}
	h.Handle(ev)
}

func (d *Dispatcher) observeBytesWritten(n int) {
	if d.metrics != nil {
		d.metrics.ObserveBytesWritten(n)
	}
}

func (d *Dispatcher) observeQueueDelta(delta int) {
	if d.metrics != nil {
		d.metrics.ObserveQueueDepthDelta(delta)
	}
}

func (d *Dispatcher) observeListenerReject() {
	if d.metrics != nil {
		d.metrics.ObserveListenerReject()
	}
}

// Dispatch runs one external input event to completion (spec.md §4.5).
func (d *Dispatcher) Dispatch(ev interfaces.InputEvent) {
	switch ev.Kind {
	case interfaces.CreateListener:
		d.createListener(ev)
	case interfaces.CreateClient:
		d.createClient(ev)
	case interfaces.AcceptedConnection:
		d.acceptedConnection(ev)
	case interfaces.Close:
		d.closeConn(ev)
	case interfaces.CloseListener:
		d.closeListener(ev)
	case interfaces.Write:
		d.write(ev)
	default:
		d.log.Warn("dispatcher: unknown input kind", "kind", int(ev.Kind))
	}
}

// orderIPv6First stably partitions addrs so every IPv6 candidate is tried
// before any IPv4 one, matching the fallback order spec.md §4.5 describes
// for CREATE_LISTENER ("preferring IPv6 first, then restart with non-IPv6").
func orderIPv6First(addrs []interfaces.Addr) []interfaces.Addr {
	ordered := make([]interfaces.Addr, 0, len(addrs))
	for _, a := range addrs {
		if a.IsIPv6 {
			ordered = append(ordered, a)
		}
	}
	for _, a := range addrs {
		if !a.IsIPv6 {
			ordered = append(ordered, a)
		}
	}
	return ordered
}

func (d *Dispatcher) createListener(ev interfaces.InputEvent) {
	endpointID := ev.ID
	rawURI, _ := ev.Params.(string)

	scheme, host, port, err := uri.Split(rawURI)
	if err != nil || scheme != uri.TCPUA {
		d.emit(interfaces.OutputEvent{Kind: interfaces.ListenerFailure, ID: endpointID})
		return
	}
	if ev.Aux != 0 {
		host = ""
	}

	addrs, err := d.raw.Resolve(host, port)
	if err != nil || len(addrs) == 0 {
		d.emit(interfaces.OutputEvent{Kind: interfaces.ListenerFailure, ID: endpointID})
		return
	}

	slot, ok := d.tbl.GetFree(true)
	if !ok {
		d.log.Warn("createListener: socket table full", "endpoint", endpointID)
		d.emit(interfaces.OutputEvent{Kind: interfaces.ListenerFailure, ID: endpointID})
		return
	}

	opened := false
	for _, addr := range orderIPv6First(addrs) {
		fd, err := d.raw.CreateNew(addr, true, true)
		if err != nil {
			continue
		}
		if err := d.raw.BindAndListen(fd, addr); err != nil {
			d.raw.Close(fd)
			continue
		}
		slot.FD = fd
		slot.State = table.Listening
		slot.ConnectionID = endpointID
		opened = true
		break
	}
	if !opened {
		d.tbl.Close(slot.Idx, d.raw)
		d.emit(interfaces.OutputEvent{Kind: interfaces.ListenerFailure, ID: endpointID})
		return
	}
	d.emit(interfaces.OutputEvent{Kind: interfaces.ListenerOpened, ID: endpointID, Aux: slot.Idx})
}

func (d *Dispatcher) createClient(ev interfaces.InputEvent) {
	connID := ev.ID
	rawURI, _ := ev.Params.(string)

	scheme, host, port, err := uri.Split(rawURI)
	if err != nil || scheme != uri.TCPUA {
		d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: connID})
		return
	}

	addrs, err := d.raw.Resolve(host, port)
	if err != nil || len(addrs) == 0 {
		d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: connID})
		return
	}

	slot, ok := d.tbl.GetFree(false)
	if !ok {
		d.log.Warn("createClient: socket table full", "connection", connID)
		d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: connID})
		return
	}
	slot.ConnectionID = connID

	for i, addr := range addrs {
		fd, err := d.raw.CreateNew(addr, false, true)
		if err != nil {
			continue
		}
		if _, err := d.raw.Connect(fd, addr); err != nil {
			d.raw.Close(fd)
			continue
		}
		slot.FD = fd
		slot.State = table.Connecting
		slot.ConnectAddrs = addrs
		slot.NextConnectAttemptAddr = i + 1
		return
	}

	d.tbl.Close(slot.Idx, d.raw)
	d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: connID})
}

func (d *Dispatcher) acceptedConnection(ev interfaces.InputEvent) {
	slot, ok := d.tbl.Get(ev.ID)
	if !ok {
		return
	}
	if slot.State != table.Accepted {
		d.tbl.Close(slot.Idx, d.raw)
		return
	}
	slot.ConnectionID = ev.Aux
	slot.State = table.Connected
}

func (d *Dispatcher) closeConn(ev interfaces.InputEvent) {
	slot, ok := d.tbl.Get(ev.ID)
	if !ok {
		return
	}
	if slot.State == table.Closed || slot.State == table.Listening {
		return
	}
	if slot.ConnectionID != ev.Aux {
		return
	}
	d.tbl.Close(slot.Idx, d.raw)
}

func (d *Dispatcher) closeListener(ev interfaces.InputEvent) {
	slot, ok := d.tbl.Get(ev.ID)
	if !ok {
		return
	}
	if slot.State != table.Listening {
		return
	}
	if slot.ConnectionID != ev.Aux {
		return
	}
	d.tbl.Close(slot.Idx, d.raw)
}

func (d *Dispatcher) write(ev interfaces.InputEvent) {
	slot, ok := d.tbl.Get(ev.ID)
	if !ok {
		return
	}
	buf, ok := ev.Params.(*interfaces.Buffer)
	if !ok || buf == nil {
		return
	}
	if slot.State != table.Connected {
		return
	}

	buf.Position = 0
	slot.WriteQueue = append(slot.WriteQueue, buf)
	d.observeQueueDelta(1)
	if slot.IsNotWritable {
		return
	}
	if err := d.treatWriteBuffer(slot); err != nil {
		connID, idx := slot.ConnectionID, slot.Idx
		d.tbl.Close(idx, d.raw)
		d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: connID, Aux: idx})
	}
}
