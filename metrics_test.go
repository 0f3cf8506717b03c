package sockets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s2opc-go/sockets/internal/interfaces"
)

func TestMetricsObserveOutputEvents(t *testing.T) {
	m := NewMetrics()

	m.observe(interfaces.OutputEvent{Kind: interfaces.ListenerOpened})
	m.observe(interfaces.OutputEvent{Kind: interfaces.ListenerFailure})
	m.observe(interfaces.OutputEvent{Kind: interfaces.Connection})
	m.observe(interfaces.OutputEvent{Kind: interfaces.Failure})
	m.observe(interfaces.OutputEvent{Kind: interfaces.ListenerConnection})
	m.observe(interfaces.OutputEvent{Kind: interfaces.RcvBytes, Params: &interfaces.Buffer{Data: []byte("hello")}})

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.ListenersOpened)
	assert.EqualValues(t, 1, snap.ListenersFailed)
	assert.EqualValues(t, 1, snap.ConnectionsMade)
	assert.EqualValues(t, 1, snap.ConnectionsLost)
	assert.EqualValues(t, 1, snap.Accepted)
	assert.EqualValues(t, 5, snap.BytesRead)
}

func TestMetricsSinkHooks(t *testing.T) {
	m := NewMetrics()

	m.ObserveQueueDepthDelta(3)
	m.ObserveQueueDepthDelta(-1)
	m.ObserveBytesWritten(42)
	m.ObserveListenerReject()

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.WriteQueueDepth)
	assert.EqualValues(t, 42, snap.BytesWritten)
	assert.EqualValues(t, 1, snap.ListenerRejects)
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.ObserveBytesWritten(10)
	m.Reset()
	assert.EqualValues(t, 0, m.Snapshot().BytesWritten)
}
