// Package reactor implements the network event manager of spec.md §4.7:
// the single dedicated loop that builds select(2) sets from the slot
// table, polls them with a zero timeout (per spec.md), drains the input
// queue, and classifies readiness into the
// internal events internal/dispatcher handles. Grounded on go-ublk's
// internal/queue/runner.go Runner.Run loop (a Config struct wiring
// table/adapter/dispatcher/logger, one dedicated loop per resource) with
// the io_uring submit/wait cycle replaced by rawsock.Select.
package reactor

import (
	"context"

	"github.com/s2opc-go/sockets/internal/dispatcher"
	"github.com/s2opc-go/sockets/internal/interfaces"
	"github.com/s2opc-go/sockets/internal/queue"
	"github.com/s2opc-go/sockets/internal/table"
)

// Config wires the reactor's collaborators.
type Config struct {
	Table      *table.Table
	Raw        interfaces.RawSocket
	Dispatcher *dispatcher.Dispatcher
	Queue      *queue.InputQueue
	Waker      interfaces.Waker
	Logger     interfaces.Logger
}

// Reactor is the select-driven loop. It owns no state beyond its
// collaborators: every mutation happens through Table/Dispatcher, exactly
// as spec.md §5 requires ("all socket-slot mutations happen on [the
// reactor] thread").
type Reactor struct {
	tbl   *table.Table
	raw   interfaces.RawSocket
	disp  *dispatcher.Dispatcher
	q     *queue.InputQueue
	waker interfaces.Waker
	log   interfaces.Logger

	done chan struct{}
}

// New builds a Reactor from cfg.
func New(cfg Config) *Reactor {
	return &Reactor{
		tbl:   cfg.Table,
		raw:   cfg.Raw,
		disp:  cfg.Dispatcher,
		q:     cfg.Queue,
		waker: cfg.Waker,
		log:   cfg.Logger,
		done:  make(chan struct{}),
	}
}

// Run calls Step in a tight loop — spec.md §4.7 calls for select(2) with a
// zero timeout and no other suspension point, so this loop spins rather
// than sleeping between iterations — until ctx is canceled, Stop is
// called, or Step reports a fatal select(2) failure.
func (r *Reactor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		default:
		}
		if !r.Step() {
			return
		}
	}
}

// Stop ends a running Run loop. Safe to call once; a second call panics,
// matching close(chan)'s semantics — callers own calling it exactly once,
// typically from the facade's Clear.
func (r *Reactor) Stop() {
	close(r.done)
}

// Step runs one full reactor iteration (spec.md §4.7 steps 1-7) and
// reports whether the reactor should keep running; false means select(2)
// itself failed, which spec.md §7 calls fatal.
func (r *Reactor) Step() bool {
	readSet := r.raw.NewFDSet()
	writeSet := r.raw.NewFDSet()
	exceptSet := r.raw.NewFDSet()

	wakeFD := -1
	if r.waker != nil {
		wakeFD = r.waker.ReadFD()
		if wakeFD >= 0 {
			readSet.Add(wakeFD)
		}
	}

	for _, idx := range r.tbl.InUseIndices() {
		slot, ok := r.tbl.Get(idx)
		if !ok {
			continue
		}
		switch slot.State {
		case table.Connecting:
			writeSet.Add(slot.FD)
		case table.Connected:
			if slot.IsNotWritable {
				writeSet.Add(slot.FD)
			} else {
				readSet.Add(slot.FD)
			}
		case table.Listening:
			readSet.Add(slot.FD)
		default:
			continue
		}
		exceptSet.Add(slot.FD)
	}

	_, err := r.raw.Select(readSet, writeSet, exceptSet, 0)
	if err != nil {
		r.log.Error("select failed, reactor stopping", "err", err)
		return false
	}

	if wakeFD >= 0 && readSet.IsSet(wakeFD) {
		r.waker.Drain()
	}

	for _, ev := range r.q.Drain() {
		r.disp.Dispatch(ev)
	}

	for _, idx := range r.tbl.InUseIndices() {
		slot, ok := r.tbl.Get(idx)
		if !ok {
			continue
		}
		fd := slot.FD
		readyRead := readSet.IsSet(fd)
		readyWrite := writeSet.IsSet(fd)
		readyExcept := exceptSet.IsSet(fd)

		switch {
		case slot.State == table.Connecting && readyWrite:
			if err := r.raw.CheckAckConnect(fd); err != nil {
				r.disp.HandleConnectionAttemptFailed(idx)
			} else {
				r.disp.HandleConnected(idx)
			}
		case readyRead && slot.State == table.Connected:
			r.disp.HandleReadyToRead(idx)
		case readyRead && slot.State == table.Listening:
			r.disp.HandleListenerConnectionAttempt(idx)
		case readyRead:
			r.log.Warn("unexpected read readiness", "slot", idx, "state", slot.State.String())
			r.disp.HandleClose(idx)
		case readyWrite && slot.State == table.Connected:
			r.disp.HandleReadyToWrite(idx)
		case readyWrite:
			r.disp.HandleClose(idx)
		}

		if readyExcept {
			r.disp.HandleClose(idx)
		}
	}

	return true
}
