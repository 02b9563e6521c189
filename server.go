// Package rfbshare exposes a host's primary display to remote viewers
// over RFB carried inside a WebSocket transport. It wires the capture
// loop, the framebuffer store, and per-client RFB sessions behind a
// small Start/Stop control surface.
package rfbshare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coregrid/rfbshare/capture"
	"github.com/coregrid/rfbshare/framebuffer"
	"github.com/coregrid/rfbshare/input"
	"github.com/coregrid/rfbshare/logging"
	"github.com/coregrid/rfbshare/rfberrors"
	"github.com/coregrid/rfbshare/session"
	"github.com/coregrid/rfbshare/wsstream"
)

const (
	defaultPort        = 5900
	defaultDesktopName = "rfbshare"
	acceptPollInterval = time.Second
	defaultWidth       = 1280
	defaultHeight      = 720
)

// ClientMeta describes a connected viewer, passed to the connect/
// disconnect event callbacks.
type ClientMeta = session.Meta

// Config configures a Server. Only Port is commonly overridden; the
// rest default to sensible values for local development.
type Config struct {
	Port        int
	Password    string // reserved; accepted but unused (security type None is advertised)
	DesktopName string

	Logger    logging.Logger
	Adapter   capture.Adapter
	InputSink input.Sink

	OnClientConnected    func(ClientMeta)
	OnClientDisconnected func(ClientMeta)
	OnError              func(error)
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.DesktopName == "" {
		c.DesktopName = defaultDesktopName
	}
	if c.Logger == nil {
		c.Logger = logging.NoOpLogger{}
	}
	if c.Adapter == nil {
		c.Adapter = capture.NewSyntheticAdapter(defaultWidth, defaultHeight, "wheel", 0)
	}
	if c.InputSink == nil {
		c.InputSink = input.NoOpSink{}
	}
	return c
}

// Server is a running (or not-yet-started) rfbshare instance. The zero
// value is not usable; construct with New.
type Server struct {
	cfg    Config
	logger logging.Logger
	store  *framebuffer.Store

	mu         sync.Mutex
	listener   *pollListener
	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc

	running        atomic.Bool
	captureRunning atomic.Bool
	activeClients  atomic.Int32

	connsMu sync.Mutex
	conns   map[io.Closer]struct{}

	wg sync.WaitGroup
}

// New constructs a Server from cfg, applying defaults for any zero
// fields.
func New(cfg Config) *Server {
	cfg = cfg.withDefaults()
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		store:  framebuffer.New(),
		conns:  make(map[io.Closer]struct{}),
	}
}

// Start binds the configured port and begins accepting clients. The
// capture loop is started lazily on the first accepted client. Start
// returns once the listener is bound; it does not block.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return rfberrors.New("server.start", rfberrors.Configuration, "listen failed on "+addr, err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return rfberrors.New("server.start", rfberrors.Configuration, "listener is not TCP", nil)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.listener = newPollListener(tcpLn, acceptPollInterval)
	s.running.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	s.httpServer = &http.Server{Handler: mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.httpServer.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) && s.running.Load() {
			s.emitError(rfberrors.New("server.accept", rfberrors.Configuration, "accept loop exited", err))
		}
	}()

	return nil
}

// Stop tears the listener and capture loop down and closes every live
// client socket, returning once the accept loop and the capture loop
// have exited. Session handlers are not waited for; each one ends on its
// own once its socket has been closed. Safe to call more than once.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.captureRunning.Store(false)

	s.mu.Lock()
	cancel := s.cancel
	listener := s.listener
	httpServer := s.httpServer
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.closeAllConns()
	if listener != nil {
		listener.Close()
	}
	if httpServer != nil {
		httpServer.Close()
	}
	s.store.Close()

	s.wg.Wait()
	return nil
}

// SetQuality is a no-op placeholder: the core only ever ships Raw
// encoding at capture resolution.
func (s *Server) SetQuality(level int) {}

// ActiveClientsCount returns the number of currently connected viewers.
func (s *Server) ActiveClientsCount() int {
	return int(s.activeClients.Load())
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := wsstream.Upgrade(w, r)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Field{Key: "err", Value: err})
		return
	}

	s.activeClients.Add(1)
	s.registerConn(conn)
	defer func() {
		s.unregisterConn(conn)
		s.activeClients.Add(-1)
		conn.Close()
	}()

	s.ensureCaptureLoop()

	sess := session.New(session.Config{
		Conn:           conn,
		Store:          s.store,
		Sink:           s.cfg.InputSink,
		Logger:         s.logger,
		DesktopName:    s.cfg.DesktopName,
		RemoteAddr:     r.RemoteAddr,
		OnConnected:    s.cfg.OnClientConnected,
		OnDisconnected: s.cfg.OnClientDisconnected,
	})

	if err := sess.Run(s.ctx); err != nil {
		s.logger.Debug("session ended", logging.Field{Key: "remote", Value: r.RemoteAddr}, logging.Field{Key: "err", Value: err})
	}
}

func (s *Server) ensureCaptureLoop() {
	if !s.captureRunning.CompareAndSwap(false, true) {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		loop := &capture.Loop{
			Adapter:       s.cfg.Adapter,
			Store:         s.store,
			ActiveClients: s.activeClients.Load,
			OnError: func(err error) {
				s.emitError(rfberrors.New("capture.loop", rfberrors.CaptureFatal, "capture loop exited", err))
			},
		}
		loop.Run(s.ctx)
	}()
}

func (s *Server) emitError(err error) {
	s.logger.Error("server error", logging.Field{Key: "err", Value: err})
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}

func (s *Server) registerConn(c io.Closer) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) unregisterConn(c io.Closer) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, c)
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for c := range s.conns {
		c.Close()
	}
}
