// Package rfberrors implements rfbshare's error taxonomy, grounded on
// tenthirtyam-go-vnc's errors.go.
package rfberrors

import (
	"errors"
	"fmt"
)

// Code classifies an Error by which layer raised it and how the rest of
// the system should react.
type Code int

const (
	// Transport covers socket read/write failures and unexpected EOF;
	// only the affected session terminates.
	Transport Code = iota
	// Protocol covers malformed RFB/WebSocket input; only the affected
	// session terminates.
	Protocol
	// CaptureTransient covers Timeout/Lost from the capture adapter;
	// swallowed inside the capture loop.
	CaptureTransient
	// CaptureFatal covers unrecoverable capture adapter failures; the
	// capture loop exits but existing sessions keep serving their last
	// frame.
	CaptureFatal
	// Configuration covers synchronous start-up failures such as the
	// listen port being in use.
	Configuration
)

func (c Code) String() string {
	switch c {
	case Transport:
		return "transport"
	case Protocol:
		return "protocol"
	case CaptureTransient:
		return "capture_transient"
	case CaptureFatal:
		return "capture_fatal"
	case Configuration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is rfbshare's structured error type: an operation name, a
// taxonomy code, a message, and an optional wrapped cause.
type Error struct {
	Op      string
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rfbshare %s: %s: %s: %v", e.Code, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("rfbshare %s: %s: %s", e.Code, e.Op, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Op and Code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Op == other.Op && e.Code == other.Code
	}
	return false
}

// New builds an *Error.
func New(op string, code Code, message string, err error) *Error {
	return &Error{Op: op, Code: code, Message: message, Err: err}
}
