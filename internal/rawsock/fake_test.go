package rawsock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeListenAcceptConnect(t *testing.T) {
	f := NewFake()
	addr, err := f.Resolve("", "4840")
	require.NoError(t, err)

	lfd, err := f.CreateNew(addr[0], true, true)
	require.NoError(t, err)
	require.NoError(t, f.BindAndListen(lfd, addr[0]))

	cfd, err := f.CreateNew(addr[0], false, true)
	require.NoError(t, err)
	wouldBlock, err := f.Connect(cfd, addr[0])
	require.NoError(t, err)
	assert.False(t, wouldBlock)

	res := f.Accept(lfd, true)
	require.NoError(t, res.Err)
	assert.False(t, res.WouldBlock)
	assert.Greater(t, res.FD, 0)

	payload := []byte("hello")
	wr := f.Write(cfd, payload)
	require.NoError(t, wr.Err)
	assert.Equal(t, len(payload), wr.N)

	buf := make([]byte, 16)
	rr := f.Read(res.FD, buf)
	require.NoError(t, rr.Err)
	assert.Equal(t, len(payload), rr.N)
	assert.Equal(t, payload, buf[:rr.N])
}

func TestFakeConnectRefusedWithoutListener(t *testing.T) {
	f := NewFake()
	addr, _ := f.Resolve("", "4840")
	cfd, err := f.CreateNew(addr[0], false, true)
	require.NoError(t, err)

	_, err = f.Connect(cfd, addr[0])
	assert.ErrorIs(t, err, ErrConnectionRefused)
}

func TestFakeAcceptWouldBlockWithNoPending(t *testing.T) {
	f := NewFake()
	addr, _ := f.Resolve("", "4840")
	lfd, _ := f.CreateNew(addr[0], true, true)
	require.NoError(t, f.BindAndListen(lfd, addr[0]))

	res := f.Accept(lfd, true)
	assert.True(t, res.WouldBlock)
}

func TestFakeReadWouldBlockThenCloseReportsClosed(t *testing.T) {
	f := NewFake()
	addr, _ := f.Resolve("", "4840")
	lfd, _ := f.CreateNew(addr[0], true, true)
	require.NoError(t, f.BindAndListen(lfd, addr[0]))
	cfd, _ := f.CreateNew(addr[0], false, true)
	_, err := f.Connect(cfd, addr[0])
	require.NoError(t, err)
	accepted := f.Accept(lfd, true)
	require.NoError(t, accepted.Err)

	buf := make([]byte, 8)
	rr := f.Read(accepted.FD, buf)
	assert.True(t, rr.WouldBlock)

	require.NoError(t, f.Close(cfd))
	rr = f.Read(accepted.FD, buf)
	assert.True(t, rr.Closed)
}

func TestFakeForceConnectWouldBlockDefersPairing(t *testing.T) {
	f := NewFake()
	f.ForceConnectWouldBlock = true
	addr, _ := f.Resolve("", "4840")
	lfd, _ := f.CreateNew(addr[0], true, true)
	require.NoError(t, f.BindAndListen(lfd, addr[0]))
	cfd, _ := f.CreateNew(addr[0], false, true)

	wouldBlock, err := f.Connect(cfd, addr[0])
	require.NoError(t, err)
	assert.True(t, wouldBlock)

	res := f.Accept(lfd, true)
	assert.True(t, res.WouldBlock, "pairing not yet completed")

	f.CompletePendingConnect(cfd)
	res = f.Accept(lfd, true)
	require.NoError(t, res.Err)
	assert.False(t, res.WouldBlock)
}

func TestFakeSelectMutatesSetsToReadyOnly(t *testing.T) {
	f := NewFake()
	addr, _ := f.Resolve("", "4840")
	lfd, _ := f.CreateNew(addr[0], true, true)
	require.NoError(t, f.BindAndListen(lfd, addr[0]))
	cfd, _ := f.CreateNew(addr[0], false, true)
	idleFD, _ := f.CreateNew(addr[0], false, true)

	_, err := f.Connect(cfd, addr[0])
	require.NoError(t, err)

	readSet := f.NewFDSet()
	readSet.Add(lfd)
	readSet.Add(idleFD)

	n, err := f.Select(readSet, nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, readSet.IsSet(lfd))
	assert.False(t, readSet.IsSet(idleFD))
}

func TestFakeWriteAfterPeerCloseFails(t *testing.T) {
	f := NewFake()
	addr, _ := f.Resolve("", "4840")
	lfd, _ := f.CreateNew(addr[0], true, true)
	require.NoError(t, f.BindAndListen(lfd, addr[0]))
	cfd, _ := f.CreateNew(addr[0], false, true)
	_, err := f.Connect(cfd, addr[0])
	require.NoError(t, err)
	accepted := f.Accept(lfd, true)
	require.NoError(t, accepted.Err)

	require.NoError(t, f.Close(accepted.FD))
	wr := f.Write(cfd, []byte("x"))
	assert.Error(t, wr.Err)
}
