// Package sockets is the public facade of the OPC UA sockets core: a
// single-threaded, select-driven TCP multiplexer that owns every
// connection, drives each through a non-blocking state machine, and
// exposes an event-oriented API to an upstream "secure channel" layer.
//
// Initialize boots a Core, SetEventHandler registers where its output
// events go, EnqueueEvent feeds it input events from any goroutine, and
// Clear tears it down. Mirrors go-ublk's root backend.go facade
// (CreateAndServe/StopAndDelete wrapping internal/* construction and
// teardown behind a couple of calls), spec.md §4.8.
package sockets

import (
	"context"
	"sync"

	"github.com/s2opc-go/sockets/internal/constants"
	"github.com/s2opc-go/sockets/internal/dispatcher"
	"github.com/s2opc-go/sockets/internal/interfaces"
	"github.com/s2opc-go/sockets/internal/logging"
	"github.com/s2opc-go/sockets/internal/queue"
	"github.com/s2opc-go/sockets/internal/rawsock"
	"github.com/s2opc-go/sockets/internal/reactor"
	"github.com/s2opc-go/sockets/internal/table"
)

// Options bundles the init-time tuning constants and ambient collaborators
// passed to Initialize, mirroring go-ublk's Options/DeviceParams pattern.
// MinReadBuffer and MaxBuffer (spec.md §6) are compile-time constants
// (internal/constants) rather than fields here: spec.md §9 only calls out
// MAX_SOCKETS as explicitly barred from dynamic reconfiguration, but none
// of the four tuning constants are runtime-mutable once Initialize returns,
// so only the two that meaningfully vary per deployment (table sizing) are
// exposed.
type Options struct {
	// MaxSockets sizes the slot table, including reserved index 0.
	// Zero uses constants.MaxSockets.
	MaxSockets int

	// MaxSocketsConnections caps simultaneously accepted connections per
	// listener. Zero uses constants.MaxSocketsConnections.
	MaxSocketsConnections int

	// Logger receives every structured log line the core emits. Nil
	// installs a default info-level logger to stderr.
	Logger *logging.Logger

	// Metrics receives the core's operational counters. Nil installs a
	// fresh, private *Metrics (retrievable later via Core.Metrics).
	Metrics *Metrics
}

// DefaultOptions returns the tuning constants spec.md §6 names.
func DefaultOptions() Options {
	return Options{
		MaxSockets:            constants.MaxSockets,
		MaxSocketsConnections: constants.MaxSocketsConnections,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxSockets <= 0 {
		o.MaxSockets = d.MaxSockets
	}
	if o.MaxSocketsConnections <= 0 {
		o.MaxSocketsConnections = d.MaxSocketsConnections
	}
	return o
}

// Core is one running instance of the sockets layer. Exactly one reactor
// goroutine backs it, started by Initialize and joined by Clear (spec.md
// §5: "single-threaded cooperative reactor").
type Core struct {
	tbl     *table.Table
	raw     interfaces.RawSocket
	disp    *dispatcher.Dispatcher
	q       *queue.InputQueue
	waker   interfaces.Waker
	reactor *reactor.Reactor
	fwd     *forwardingHandler
	metrics *Metrics
	log     *logging.Logger

	done chan struct{}
}

// Initialize boots the raw-socket library, the slot table and the reactor,
// and starts the reactor's dedicated goroutine (spec.md §4.8).
func Initialize(opts Options) (*Core, error) {
	waker, err := rawsock.NewSelfPipe()
	if err != nil {
		return nil, WrapError("Initialize", CodeNOK, err)
	}
	return newCore(opts, rawsock.New(), waker)
}

// newCore builds a Core over an injected raw socket adapter and waker,
// letting in-package tests drive the facade against rawsock.Fake instead of
// real file descriptors (mirrors go-ublk/testing.go's pattern of exercising
// production wiring against a fake backend from within the package itself).
func newCore(opts Options, raw interfaces.RawSocket, waker interfaces.Waker) (*Core, error) {
	opts = opts.withDefaults()

	log := opts.Logger
	if log == nil {
		log = logging.NewLogger(logging.DefaultConfig())
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	tbl := table.New(opts.MaxSockets, opts.MaxSocketsConnections)

	handler := &interfaces.HandlerRef{}
	fwd := &forwardingHandler{metrics: metrics}
	handler.Store(fwd)

	disp := dispatcher.New(tbl, raw, handler, log)
	disp.SetMetrics(metrics)
	q := queue.NewInputQueue()

	r := reactor.New(reactor.Config{
		Table:      tbl,
		Raw:        raw,
		Dispatcher: disp,
		Queue:      q,
		Waker:      waker,
		Logger:     log,
	})

	core := &Core{
		tbl: tbl, raw: raw, disp: disp, q: q, waker: waker, reactor: r,
		fwd: fwd, metrics: metrics, log: log,
		done: make(chan struct{}),
	}

	go func() {
		defer close(core.done)
		r.Run(context.Background())
	}()

	return core, nil
}

// SetEventHandler atomically installs h as the recipient of every output
// event emitted from now on, replacing whatever was installed before
// (spec.md §4.8). It may be called from any goroutine, at any time,
// including before the first output event would otherwise fire.
func (c *Core) SetEventHandler(h OutputHandler) {
	c.fwd.setNext(h)
}

// EnqueueEvent enqueues one input event and wakes the reactor (spec.md
// §4.8). Safe to call from any goroutine.
func (c *Core) EnqueueEvent(kind InputKind, id int, params any, aux int) {
	c.q.Enqueue(InputEvent{Kind: kind, ID: id, Params: params, Aux: aux})
	if err := c.waker.Wake(); err != nil {
		c.log.Error("failed to wake reactor", "err", err)
	}
}

// Metrics returns the core's operational counters.
func (c *Core) Metrics() *Metrics {
	return c.metrics
}

// Clear stops the reactor (joining its goroutine), closes every still-open
// slot, and shuts down the self-pipe (spec.md §4.8). Safe to call once.
func (c *Core) Clear() error {
	c.reactor.Stop()
	<-c.done
	for _, idx := range c.tbl.InUseIndices() {
		c.tbl.Close(idx, c.raw)
	}
	return c.waker.Close()
}

// forwardingHandler is the OutputHandler always installed on the
// dispatcher's HandlerRef: it feeds Metrics on every event, then forwards
// to whatever upstream handler SetEventHandler most recently installed (nil
// until the first SetEventHandler call, in which case the event is simply
// not forwarded further, per spec.md §4.8).
type forwardingHandler struct {
	metrics *Metrics

	mu   sync.Mutex
	next OutputHandler
}

func (f *forwardingHandler) Handle(ev OutputEvent) {
	f.metrics.observe(ev)
	f.mu.Lock()
	next := f.next
	f.mu.Unlock()
	if next != nil {
		next.Handle(ev)
	}
}

func (f *forwardingHandler) setNext(h OutputHandler) {
	f.mu.Lock()
	f.next = h
	f.mu.Unlock()
}
