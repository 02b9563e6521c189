// Package input defines the abstract injection target for decoded RFB
// KeyEvent/PointerEvent messages. Actually replaying
// input into the OS is delegated to whatever Sink the embedding host
// supplies; this package ships only the interface and two reference
// implementations that never touch the OS.
package input

import "github.com/coregrid/rfbshare/logging"

// Sink receives decoded pointer/keyboard events forwarded by a running
// session. Implementations must be safe for concurrent use by multiple
// sessions.
type Sink interface {
	KeyEvent(down bool, key uint32)
	PointerEvent(mask uint8, x, y uint16)
}

// NoOpSink discards every event. It is the default Sink when none is
// configured.
type NoOpSink struct{}

func (NoOpSink) KeyEvent(down bool, key uint32)        {}
func (NoOpSink) PointerEvent(mask uint8, x, y uint16)  {}

// LoggingSink records every event at Debug level instead of injecting
// it, useful for interop testing against a real VNC client without a
// platform injector wired in.
type LoggingSink struct {
	Logger logging.Logger
}

func (s LoggingSink) KeyEvent(down bool, key uint32) {
	s.Logger.Debug("key event", logging.Field{Key: "down", Value: down}, logging.Field{Key: "key", Value: key})
}

func (s LoggingSink) PointerEvent(mask uint8, x, y uint16) {
	s.Logger.Debug("pointer event",
		logging.Field{Key: "mask", Value: mask},
		logging.Field{Key: "x", Value: x},
		logging.Field{Key: "y", Value: y})
}
