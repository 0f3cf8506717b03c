package sockets

import (
	"errors"
	"fmt"
)

// Code is the error taxonomy of spec.md §7.
type Code string

const (
	CodeOK                Code = "OK"
	CodeWouldBlock        Code = "WOULD_BLOCK"
	CodeClosed            Code = "CLOSED"
	CodeOutOfMemory       Code = "OUT_OF_MEMORY"
	CodeInvalidParameters Code = "INVALID_PARAMETERS"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeNOK               Code = "NOK"
)

// Error is a structured error carrying the operation that failed, the
// taxonomy code, the slot/connection it concerns (if any), and the
// underlying cause. Grounded on go-ublk's errors.go Op/Code/Inner shape,
// re-coded for the sockets taxonomy instead of ublk's device error codes.
type Error struct {
	Op     string // e.g. "CreateListener", "Connect", "Write"
	Code   Code
	SlotID int // slot table index, -1 if not applicable
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.SlotID >= 0 {
		return fmt.Sprintf("sockets: %s: %s (slot=%d)", e.Op, msg, e.SlotID)
	}
	return fmt.Sprintf("sockets: %s: %s", e.Op, msg)
}

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by Code, either against another *Error
// or against one of the Err* sentinels below.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	if code, ok := codeOf(target); ok {
		return e.Code == code
	}
	return false
}

func codeOf(err error) (Code, bool) {
	switch err {
	case ErrWouldBlock:
		return CodeWouldBlock, true
	case ErrClosed:
		return CodeClosed, true
	case ErrOutOfMemory:
		return CodeOutOfMemory, true
	case ErrInvalidParameters:
		return CodeInvalidParameters, true
	case ErrInvalidState:
		return CodeInvalidState, true
	case ErrNOK:
		return CodeNOK, true
	default:
		return "", false
	}
}

// Sentinel errors, one per taxonomy code other than OK, for plain
// errors.Is comparison without constructing an *Error.
var (
	ErrWouldBlock        = errors.New("sockets: would block")
	ErrClosed            = errors.New("sockets: closed")
	ErrOutOfMemory       = errors.New("sockets: out of memory")
	ErrInvalidParameters = errors.New("sockets: invalid parameters")
	ErrInvalidState      = errors.New("sockets: invalid state")
	ErrNOK               = errors.New("sockets: error")
)

// NewError builds an *Error not tied to any particular slot.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, SlotID: -1, Msg: msg}
}

// NewSlotError builds an *Error scoped to slotID.
func NewSlotError(op string, slotID int, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, SlotID: slotID, Msg: msg}
}

// WrapError builds an *Error carrying inner as its wrapped cause.
func WrapError(op string, code Code, inner error) *Error {
	msg := ""
	if inner != nil {
		msg = inner.Error()
	}
	return &Error{Op: op, Code: code, SlotID: -1, Msg: msg, Inner: inner}
}
