package sockets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/s2opc-go/sockets/internal/rawsock"
)

func newTestCore(t *testing.T) (*Core, *rawsock.Fake, *RecordingHandler) {
	t.Helper()
	fake := rawsock.NewFake()
	core, err := newCore(Options{}, fake, rawsock.NoopWaker{})
	require.NoError(t, err)

	rec := NewRecordingHandler()
	core.SetEventHandler(rec)
	return core, fake, rec
}

func TestCoreOpensListenerAndAcceptsConnection(t *testing.T) {
	core, fake, rec := newTestCore(t)
	defer core.Clear()

	core.EnqueueEvent(CreateListener, 1, "opc.tcp://127.0.0.1:4840", 1)
	require.Eventually(t, func() bool { return rec.Count() >= 1 }, time.Second, time.Millisecond)
	require.Equal(t, ListenerOpened, rec.Events()[0].Kind)

	peerAddr, err := fake.Resolve("", "4840")
	require.NoError(t, err)
	peerFD, err := fake.CreateNew(peerAddr[0], false, true)
	require.NoError(t, err)
	_, err = fake.Connect(peerFD, peerAddr[0])
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.Count() >= 2 }, time.Second, time.Millisecond)
	accepted := rec.Events()[1]
	require.Equal(t, ListenerConnection, accepted.Kind)

	core.EnqueueEvent(AcceptedConnection, accepted.Aux, nil, 77)

	wr := fake.Write(peerFD, []byte("hello"))
	require.NoError(t, wr.Err)

	require.Eventually(t, func() bool { return rec.Count() >= 3 }, time.Second, time.Millisecond)
	rcv := rec.Events()[2]
	require.Equal(t, RcvBytes, rcv.Kind)
	require.Equal(t, 77, rcv.ID)
	buf, ok := rcv.Params.(*Buffer)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), buf.Data)

	snap := core.Metrics().Snapshot()
	require.EqualValues(t, 1, snap.ListenersOpened)
	require.EqualValues(t, 1, snap.Accepted)
	require.EqualValues(t, 5, snap.BytesRead)
}

func TestCoreClearStopsReactor(t *testing.T) {
	core, _, _ := newTestCore(t)
	require.NoError(t, core.Clear())
}
