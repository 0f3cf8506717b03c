package sockets

import (
	"sync/atomic"

	"github.com/s2opc-go/sockets/internal/interfaces"
)

// Metrics tracks operational statistics for a running sockets core. All
// fields are safe for concurrent use: the reactor goroutine records, any
// goroutine may read a snapshot. Grounded on go-ublk's metrics.go
// atomic-counter-struct pattern, scaled down to what this core can observe
// about itself — no latency histogram, since the core performs no
// application-level I/O a latency measurement would be meaningful for.
type Metrics struct {
	ListenersOpened atomic.Uint64
	ListenersFailed atomic.Uint64
	ConnectionsMade atomic.Uint64
	ConnectionsLost atomic.Uint64
	Accepted        atomic.Uint64
	ListenerRejects atomic.Uint64 // accepts refused past MaxSocketsConnections
	BytesRead       atomic.Uint64
	BytesWritten    atomic.Uint64
	WriteQueueDepth atomic.Int64 // current total queued buffers across all slots
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordListenerOpened()      { m.ListenersOpened.Add(1) }
func (m *Metrics) recordListenerFailed()      { m.ListenersFailed.Add(1) }
func (m *Metrics) recordConnectionMade()      { m.ConnectionsMade.Add(1) }
func (m *Metrics) recordConnectionLost()      { m.ConnectionsLost.Add(1) }
func (m *Metrics) recordAccepted()            { m.Accepted.Add(1) }
func (m *Metrics) recordListenerReject()      { m.ListenerRejects.Add(1) }
func (m *Metrics) recordBytesRead(n int)      { m.BytesRead.Add(uint64(n)) }
func (m *Metrics) recordBytesWritten(n int)   { m.BytesWritten.Add(uint64(n)) }
func (m *Metrics) recordQueueDelta(delta int) { m.WriteQueueDepth.Add(int64(delta)) }

// Snapshot is a point-in-time copy of Metrics, safe to log or serialize.
type Snapshot struct {
	ListenersOpened int64
	ListenersFailed int64
	ConnectionsMade int64
	ConnectionsLost int64
	Accepted        int64
	ListenerRejects int64
	BytesRead       int64
	BytesWritten    int64
	WriteQueueDepth int64
}

// Snapshot reads every counter into a Snapshot.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ListenersOpened: int64(m.ListenersOpened.Load()),
		ListenersFailed: int64(m.ListenersFailed.Load()),
		ConnectionsMade: int64(m.ConnectionsMade.Load()),
		ConnectionsLost: int64(m.ConnectionsLost.Load()),
		Accepted:        int64(m.Accepted.Load()),
		ListenerRejects: int64(m.ListenerRejects.Load()),
		BytesRead:       int64(m.BytesRead.Load()),
		BytesWritten:    int64(m.BytesWritten.Load()),
		WriteQueueDepth: m.WriteQueueDepth.Load(),
	}
}

// Reset zeroes every counter. Useful for testing.
func (m *Metrics) Reset() {
	m.ListenersOpened.Store(0)
	m.ListenersFailed.Store(0)
	m.ConnectionsMade.Store(0)
	m.ConnectionsLost.Store(0)
	m.Accepted.Store(0)
	m.ListenerRejects.Store(0)
	m.BytesRead.Store(0)
	m.BytesWritten.Store(0)
	m.WriteQueueDepth.Store(0)
}

// ObserveBytesWritten implements interfaces.MetricsSink.
func (m *Metrics) ObserveBytesWritten(n int) { m.recordBytesWritten(n) }

// ObserveQueueDepthDelta implements interfaces.MetricsSink.
func (m *Metrics) ObserveQueueDepthDelta(delta int) { m.recordQueueDelta(delta) }

// ObserveListenerReject implements interfaces.MetricsSink.
func (m *Metrics) ObserveListenerReject() { m.recordListenerReject() }

var _ interfaces.MetricsSink = (*Metrics)(nil)

// observe updates m from one output event emitted by the core. Called by
// the facade's wrapping OutputHandler before forwarding to the
// upstream-registered handler, so metrics stay accurate regardless of
// whether upstream has registered a handler yet.
func (m *Metrics) observe(ev interfaces.OutputEvent) {
	switch ev.Kind {
	case interfaces.ListenerOpened:
		m.recordListenerOpened()
	case interfaces.ListenerFailure:
		m.recordListenerFailed()
	case interfaces.Connection:
		m.recordConnectionMade()
	case interfaces.Failure:
		m.recordConnectionLost()
	case interfaces.ListenerConnection:
		m.recordAccepted()
	case interfaces.RcvBytes:
		if buf, ok := ev.Params.(*interfaces.Buffer); ok {
			m.recordBytesRead(len(buf.Data))
		}
	}
}
