package sockets

import "github.com/s2opc-go/sockets/internal/interfaces"

// Buffer is a single-owner byte payload passed through Write and received
// back via an RcvBytes output event (spec.md §3).
type Buffer = interfaces.Buffer

// InputEvent is one event upstream enqueues via EnqueueEvent (spec.md §6).
type InputEvent = interfaces.InputEvent

// OutputEvent is one event the core emits to the registered OutputHandler
// (spec.md §6).
type OutputEvent = interfaces.OutputEvent

// InputKind enumerates InputEvent.Kind values.
type InputKind = interfaces.InputKind

// OutputKind enumerates OutputEvent.Kind values.
type OutputKind = interfaces.OutputKind

// OutputHandler receives every output event; see SetEventHandler.
type OutputHandler = interfaces.OutputHandler

// OutputHandlerFunc adapts a plain function to an OutputHandler.
type OutputHandlerFunc = interfaces.OutputHandlerFunc

// Input event kinds (spec.md §6).
const (
	CreateListener     = interfaces.CreateListener
	CreateClient       = interfaces.CreateClient
	AcceptedConnection = interfaces.AcceptedConnection
	Close              = interfaces.Close
	CloseListener      = interfaces.CloseListener
	Write              = interfaces.Write
)

// Output event kinds (spec.md §6).
const (
	ListenerOpened     = interfaces.ListenerOpened
	ListenerConnection = interfaces.ListenerConnection
	ListenerFailure    = interfaces.ListenerFailure
	Connection         = interfaces.Connection
	Failure            = interfaces.Failure
	RcvBytes           = interfaces.RcvBytes
)
