package dispatcher

import (
	"github.com/s2opc-go/sockets/internal/constants"
	"github.com/s2opc-go/sockets/internal/interfaces"
	"github.com/s2opc-go/sockets/internal/queue"
	"github.com/s2opc-go/sockets/internal/table"
)

// HandleListenerConnectionAttempt implements spec.md §4.6
// INT_SOCKET_LISTENER_CONNECTION_ATTEMPT: accept one pending connection on
// the listener at listenerIdx.
func (d *Dispatcher) HandleListenerConnectionAttempt(listenerIdx int) {
	listener, ok := d.tbl.Get(listenerIdx)
	if !ok || listener.State != table.Listening {
		return
	}
	if listener.ListenerConnections >= d.tbl.MaxConnectionsPerListener() {
		d.log.Warn("listener connection cap reached", "listener", listenerIdx)
		d.observeListenerReject()
		return
	}

	res := d.raw.Accept(listener.FD, true)
	if res.WouldBlock || res.Err != nil {
		return
	}

	slot, ok := d.tbl.GetFree(false)
	if !ok {
		d.raw.Close(res.FD)
		return
	}
	slot.FD = res.FD
	slot.IsServerConnection = true
	slot.ListenerSocketIdx = listenerIdx
	slot.State = table.Accepted
	// Temporarily holds the listener's endpoint id, per spec.md §3, until
	// ACCEPTED_CONNECTION overwrites it with the upstream connection id.
	slot.ConnectionID = listener.ConnectionID
	listener.ListenerConnections++

	d.emit(interfaces.OutputEvent{Kind: interfaces.ListenerConnection, ID: listener.ConnectionID, Aux: slot.Idx})
}

// HandleConnectionAttemptFailed implements spec.md §4.6
// INT_SOCKET_CONNECTION_ATTEMPT_FAILED: the in-flight connect on idx
// failed; retry against the remaining resolved addresses.
func (d *Dispatcher) HandleConnectionAttemptFailed(idx int) {
	slot, ok := d.tbl.Get(idx)
	if !ok {
		return
	}
	if slot.FD != table.InvalidFD {
		d.raw.Close(slot.FD)
		slot.FD = table.InvalidFD
	}

	for slot.NextConnectAttemptAddr < len(slot.ConnectAddrs) {
		addr := slot.ConnectAddrs[slot.NextConnectAttemptAddr]
		slot.NextConnectAttemptAddr++

		fd, err := d.raw.CreateNew(addr, false, true)
		if err != nil {
			continue
		}
		if _, err := d.raw.Connect(fd, addr); err != nil {
			d.raw.Close(fd)
			continue
		}
		slot.FD = fd
		return // stays CONNECTING, next attempt address recorded
	}

	connID := slot.ConnectionID
	d.tbl.Close(idx, d.raw)
	d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: connID})
}

// HandleConnected implements spec.md §4.6 INT_SOCKET_CONNECTED.
func (d *Dispatcher) HandleConnected(idx int) {
	slot, ok := d.tbl.Get(idx)
	if !ok || slot.State != table.Connecting {
		return
	}
	slot.ConnectAddrs = nil
	slot.NextConnectAttemptAddr = 0
	slot.State = table.Connected
	d.emit(interfaces.OutputEvent{Kind: interfaces.Connection, ID: slot.ConnectionID, Aux: slot.Idx})
}

// HandleClose implements spec.md §4.6 INT_SOCKET_CLOSE: emit the
// appropriate failure event for whatever the slot currently is, then
// close it.
func (d *Dispatcher) HandleClose(idx int) {
	slot, ok := d.tbl.Get(idx)
	if !ok {
		return
	}
	switch {
	case slot.State == table.Listening:
		d.emit(interfaces.OutputEvent{Kind: interfaces.ListenerFailure, ID: slot.ConnectionID})
	case slot.State != table.Closed:
		d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: slot.ConnectionID, Aux: slot.Idx})
	}
	d.tbl.Close(idx, d.raw)
}

// HandleReadyToRead implements spec.md §4.6 INT_SOCKET_READY_TO_READ.
//
// The syscall itself reads into a pooled scratch buffer; the bytes handed
// upward via RCV_BYTES are copied into a freshly allocated, exactly-sized
// buffer before the scratch buffer returns to the pool. RCV_BYTES
// transfers ownership permanently (there is no "upstream is done with it"
// callback in this API), so the pool — whose whole purpose is reuse once a
// buffer comes back — can never safely hold the buffer upstream keeps.
func (d *Dispatcher) HandleReadyToRead(idx int) {
	slot, ok := d.tbl.Get(idx)
	if !ok || slot.State != table.Connected {
		return
	}

	size := constants.MinReadBuffer
	if n, ok := d.raw.BytesToRead(slot.FD); ok && n > size {
		size = n
	}
	if size > constants.MaxBuffer {
		size = constants.MaxBuffer
	}

	scratch := queue.GetBuffer(size)
	res := d.raw.Read(slot.FD, scratch)
	switch {
	case res.WouldBlock:
		queue.PutBuffer(scratch)
	case res.Closed || res.Err != nil:
		queue.PutBuffer(scratch)
		d.HandleClose(idx)
	default:
		data := make([]byte, res.N)
		copy(data, scratch[:res.N])
		queue.PutBuffer(scratch)
		d.emit(interfaces.OutputEvent{
			Kind:   interfaces.RcvBytes,
			ID:     slot.ConnectionID,
			Params: &interfaces.Buffer{Data: data},
			Aux:    slot.Idx,
		})
	}
}

// HandleReadyToWrite implements spec.md §4.6 INT_SOCKET_READY_TO_WRITE.
func (d *Dispatcher) HandleReadyToWrite(idx int) {
	slot, ok := d.tbl.Get(idx)
	if !ok || slot.State != table.Connected || !slot.IsNotWritable {
		return
	}
	slot.IsNotWritable = false
	if err := d.treatWriteBuffer(slot); err != nil {
		connID := slot.ConnectionID
		d.tbl.Close(idx, d.raw)
		d.emit(interfaces.OutputEvent{Kind: interfaces.Failure, ID: connID, Aux: idx})
	}
}

type writeOutcome int

const (
	writeDone writeOutcome = iota
	writeWouldBlock
	writeError
)

type writeAllResult struct {
	outcome writeOutcome
	sent    int
	err     error
}

// writeAll drives raw.Write over buf's remaining bytes until it fully
// sends, would-block, or hard-fails, per spec.md §4.6 write_all.
func (d *Dispatcher) writeAll(fd int, buf *interfaces.Buffer) writeAllResult {
	sent := 0
	for {
		remaining := buf.Data[buf.Position+sent:]
		if len(remaining) == 0 {
			return writeAllResult{outcome: writeDone}
		}
		res := d.raw.Write(fd, remaining)
		switch {
		case res.WouldBlock:
			return writeAllResult{outcome: writeWouldBlock, sent: sent}
		case res.Err != nil:
			return writeAllResult{outcome: writeError, err: res.Err}
		case res.N == 0:
			return writeAllResult{outcome: writeError, err: errZeroWrite}
		}
		sent += res.N
		if buf.Position+sent >= len(buf.Data) {
			return writeAllResult{outcome: writeDone}
		}
	}
}

// treatWriteBuffer implements spec.md §4.6 TreatWriteBuffer: drain
// slot.WriteQueue while writes succeed fully, stopping (and marking the
// slot not-writable) on the first would-block, or returning the first
// hard error so the caller can fail and close the slot.
func (d *Dispatcher) treatWriteBuffer(slot *table.Slot) error {
	for len(slot.WriteQueue) > 0 {
		head := slot.WriteQueue[0]
		res := d.writeAll(slot.FD, head)
		switch res.outcome {
		case writeDone:
			slot.WriteQueue = slot.WriteQueue[1:]
			d.observeQueueDelta(-1)
			d.observeBytesWritten(len(head.Data))
		case writeWouldBlock:
			head.Position += res.sent
			slot.IsNotWritable = true
			return nil
		case writeError:
			slot.WriteQueue = slot.WriteQueue[1:]
			d.observeQueueDelta(-1)
			return res.err
		}
	}
	return nil
}
