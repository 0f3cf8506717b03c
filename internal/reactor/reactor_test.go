package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s2opc-go/sockets/internal/constants"
	"github.com/s2opc-go/sockets/internal/dispatcher"
	"github.com/s2opc-go/sockets/internal/interfaces"
	"github.com/s2opc-go/sockets/internal/logging"
	"github.com/s2opc-go/sockets/internal/queue"
	"github.com/s2opc-go/sockets/internal/rawsock"
	"github.com/s2opc-go/sockets/internal/table"
)

type recorder struct {
	events []interfaces.OutputEvent
}

func (r *recorder) Handle(ev interfaces.OutputEvent) {
	r.events = append(r.events, ev)
}

func (r *recorder) last() interfaces.OutputEvent {
	return r.events[len(r.events)-1]
}

func newReactor() (*Reactor, *queue.InputQueue, *rawsock.Fake, *recorder) {
	tbl := table.New(constants.MaxSockets, 2)
	fake := rawsock.NewFake()
	ref := &interfaces.HandlerRef{}
	rec := &recorder{}
	ref.Store(rec)
	log := logging.NewLogger(logging.DefaultConfig())
	disp := dispatcher.New(tbl, fake, ref, log)
	q := queue.NewInputQueue()
	r := New(Config{Table: tbl, Raw: fake, Dispatcher: disp, Queue: q, Waker: rawsock.NoopWaker{}, Logger: log})
	return r, q, fake, rec
}

// TestStepDrivesFullConnectionLifecycle walks CREATE_LISTENER through a
// received byte, one Step per externally-observable state change, matching
// how a real select(2) loop can only notice a transition on the iteration
// after it happened (spec.md §4.7 builds its fd-sets before draining the
// input queue).
func TestStepDrivesFullConnectionLifecycle(t *testing.T) {
	r, q, fake, rec := newReactor()

	q.Enqueue(interfaces.InputEvent{Kind: interfaces.CreateListener, ID: 1, Params: "opc.tcp://127.0.0.1:4840", Aux: 1})
	require.True(t, r.Step())
	require.Len(t, rec.events, 1)
	require.Equal(t, interfaces.ListenerOpened, rec.last().Kind)

	peerAddr, err := fake.Resolve("", "4840")
	require.NoError(t, err)
	peerFD, err := fake.CreateNew(peerAddr[0], false, true)
	require.NoError(t, err)
	_, err = fake.Connect(peerFD, peerAddr[0])
	require.NoError(t, err)

	require.True(t, r.Step())
	require.Len(t, rec.events, 2)
	require.Equal(t, interfaces.ListenerConnection, rec.last().Kind)
	acceptedIdx := rec.last().Aux

	q.Enqueue(interfaces.InputEvent{Kind: interfaces.AcceptedConnection, ID: acceptedIdx, Aux: 77})
	require.True(t, r.Step())
	slot, ok := r.tbl.Get(acceptedIdx)
	require.True(t, ok)
	assert.Equal(t, table.Connected, slot.State)
	assert.Len(t, rec.events, 2, "accepting upstream's id doesn't itself emit anything")

	wr := fake.Write(peerFD, []byte("hi"))
	require.NoError(t, wr.Err)
	require.True(t, r.Step())
	require.Len(t, rec.events, 3)
	assert.Equal(t, interfaces.RcvBytes, rec.last().Kind)
	assert.Equal(t, 77, rec.last().ID)
	buf, ok := rec.last().Params.(*interfaces.Buffer)
	require.True(t, ok)
	assert.Equal(t, []byte("hi"), buf.Data)
}

// TestStepReturnsFalseOnSelectFailure matches spec.md §7: select(2) itself
// failing is fatal and ends the reactor loop.
func TestStepReturnsFalseOnSelectFailure(t *testing.T) {
	r, _, fake, _ := newReactor()
	erroring := &erroringSelectRaw{Fake: fake}
	r.raw = erroring

	assert.False(t, r.Step())
}

type erroringSelectRaw struct {
	*rawsock.Fake
}

func (e *erroringSelectRaw) Select(readSet, writeSet, exceptSet interfaces.FDSet, timeout time.Duration) (int, error) {
	return 0, errors.New("select: boom")
}
