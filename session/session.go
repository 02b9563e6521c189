// Package session implements the per-client RFB state machine: WebSocket
// upgrade (already done by the caller) → RFB version negotiation →
// security negotiation → server init → message loop, with
// request/update pacing against the shared framebuffer store.
package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/coregrid/rfbshare/framebuffer"
	"github.com/coregrid/rfbshare/input"
	"github.com/coregrid/rfbshare/logging"
	"github.com/coregrid/rfbshare/rfb"
)

// Phase is one state of the per-client lifecycle.
type Phase int

const (
	WsHandshake Phase = iota
	RfbVersion
	RfbSecurity
	RfbInit
	Running
	Closed
)

func (p Phase) String() string {
	switch p {
	case WsHandshake:
		return "ws_handshake"
	case RfbVersion:
		return "rfb_version"
	case RfbSecurity:
		return "rfb_security"
	case RfbInit:
		return "rfb_init"
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// frameSource is the narrow slice of framebuffer.Store a session needs;
// kept as an interface so tests can substitute a fake store without
// driving a real capture loop.
type frameSource interface {
	Dimensions() (width, height int, ok bool)
	SnapshotIfNewer(lastSeen uint64) (framebuffer.Snapshot, bool)
}

// Meta describes a connected client, passed to connect/disconnect
// callbacks.
type Meta struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time
	Encodings   []int32
}

// Config configures a Session.
type Config struct {
	Conn        io.ReadWriteCloser
	Store       frameSource
	Sink        input.Sink
	Logger      logging.Logger
	DesktopName string
	RemoteAddr  string

	// GeometryTimeout bounds how long the handshake waits for the
	// capture loop to publish its first frame before ServerInit can be
	// sent (the store learns width/height from the first Write, which
	// may not have happened yet for the very first connecting client).
	// Defaults to 5s.
	GeometryTimeout time.Duration

	// PollInterval is how often the running loop checks for a pending
	// update to send; this implementation polls rather than waiting on
	// the framebuffer's condition variable.
	PollInterval time.Duration

	OnConnected    func(Meta)
	OnDisconnected func(Meta)
}

// Session is one client's state machine, from ServerInit through
// disconnect.
type Session struct {
	conn        io.ReadWriteCloser
	store       frameSource
	sink        input.Sink
	logger      logging.Logger
	desktopName string

	geometryTimeout time.Duration
	pollInterval    time.Duration

	onConnected    func(Meta)
	onDisconnected func(Meta)

	phase         Phase
	lastFrameSeen uint64
	updatePending bool
	encodings     []int32
	meta          Meta
}

// New constructs a Session ready to Run.
func New(cfg Config) *Session {
	sink := cfg.Sink
	if sink == nil {
		sink = input.NoOpSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	geometryTimeout := cfg.GeometryTimeout
	if geometryTimeout <= 0 {
		geometryTimeout = 5 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Millisecond
	}
	desktopName := cfg.DesktopName
	if desktopName == "" {
		desktopName = "rfbshare"
	}

	return &Session{
		conn:            cfg.Conn,
		store:           cfg.Store,
		sink:            sink,
		logger:          logger,
		desktopName:     desktopName,
		geometryTimeout: geometryTimeout,
		pollInterval:    pollInterval,
		onConnected:     cfg.OnConnected,
		onDisconnected:  cfg.OnDisconnected,
		phase:           WsHandshake,
		meta:            Meta{ID: uuid.New().String(), RemoteAddr: cfg.RemoteAddr},
	}
}

// Phase returns the session's current lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// Run drives the session to completion: handshake, then the message
// loop, until ctx is cancelled or the connection fails. The caller owns
// closing s.conn.
func (s *Session) Run(ctx context.Context) error {
	if err := s.handshake(ctx); err != nil {
		s.phase = Closed
		return err
	}

	s.phase = Running
	s.meta.ConnectedAt = time.Now()
	s.meta.Encodings = s.encodings
	if s.onConnected != nil {
		s.onConnected(s.meta)
	}
	defer func() {
		s.phase = Closed
		if s.onDisconnected != nil {
			s.onDisconnected(s.meta)
		}
	}()

	msgCh := make(chan rfb.ClientMessage, 8)
	errCh := make(chan error, 1)
	go s.readLoop(msgCh, errCh)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case m := <-msgCh:
			if err := s.handle(m); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.maybeSendUpdate(); err != nil {
				return err
			}
		}
	}
}

func (s *Session) readLoop(msgCh chan<- rfb.ClientMessage, errCh chan<- error) {
	for {
		m, err := rfb.ReadClientMessage(s.conn)
		if err != nil {
			errCh <- err
			return
		}
		msgCh <- m
	}
}

func (s *Session) handle(m rfb.ClientMessage) error {
	switch m.Kind {
	case rfb.MsgSetPixelFormat:
		// Parsed, ignored: the server always ships the format it
		// announced in ServerInit.
	case rfb.MsgSetEncodings:
		s.encodings = m.Encodings
		s.meta.Encodings = m.Encodings
	case rfb.MsgFramebufferUpdateRequest:
		s.updatePending = true
	case rfb.MsgKeyEvent:
		s.sink.KeyEvent(m.KeyDown, m.Key)
	case rfb.MsgPointerEvent:
		s.sink.PointerEvent(m.PointerMask, m.PointerX, m.PointerY)
	case rfb.MsgClientCutText:
		// Parsed, discarded: clipboard is an explicit non-goal.
	}
	return nil
}

// maybeSendUpdate implements the update scheduling policy: send at
// most one FramebufferUpdate per outstanding request, and only
// once the framebuffer has actually advanced past the last frame this
// client was shown.
func (s *Session) maybeSendUpdate() error {
	if !s.updatePending {
		return nil
	}
	snap, ok := s.store.SnapshotIfNewer(s.lastFrameSeen)
	if !ok {
		return nil
	}

	data, err := rfb.EncodeFramebufferUpdate(snap.DirtyRects, snap.Pixels, snap.Width)
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(data); err != nil {
		return err
	}

	s.updatePending = false
	s.lastFrameSeen = snap.FrameID
	return nil
}

func (s *Session) handshake(ctx context.Context) error {
	s.phase = RfbVersion
	if err := rfb.SendRFBVersion(s.conn); err != nil {
		return err
	}
	if _, err := rfb.ReadRFBVersion(s.conn); err != nil {
		return err
	}

	s.phase = RfbSecurity
	if err := rfb.SendSecurityTypes(s.conn, []uint8{rfb.SecurityNone}); err != nil {
		return err
	}
	choice, err := rfb.ReadSecurityChoice(s.conn)
	if err != nil {
		return err
	}
	if choice != rfb.SecurityNone {
		return fmt.Errorf("rfb: unsupported security type %d", choice)
	}
	if err := rfb.SendSecurityResult(s.conn, 0); err != nil {
		return err
	}
	if _, err := rfb.ReadClientInit(s.conn); err != nil {
		return err
	}

	s.phase = RfbInit
	width, height, err := s.waitForGeometry(ctx)
	if err != nil {
		return err
	}
	return rfb.SendServerInit(s.conn, rfb.ServerInit{
		Width:       uint16(width),
		Height:      uint16(height),
		PixelFormat: rfb.DefaultPixelFormat(),
		Name:        s.desktopName,
	})
}

func (s *Session) waitForGeometry(ctx context.Context) (int, int, error) {
	deadline := time.Now().Add(s.geometryTimeout)
	for {
		if width, height, ok := s.store.Dimensions(); ok {
			return width, height, nil
		}
		if time.Now().After(deadline) {
			return 0, 0, fmt.Errorf("rfb: timed out waiting for capture geometry")
		}
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
