// Package wsstream adapts a gorilla/websocket connection into a plain
// byte stream, so the RFB layer above it never has to know about
// WebSocket framing: it sees a pure byte stream in either direction.
package wsstream

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Upgrader wraps gorilla/websocket's handshake (Sec-WebSocket-Accept
// computation, 101 response) and frame-level masking/control-frame
// handling (RFC 6455), so this package never has to reimplement any of
// it by hand.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn presents a *websocket.Conn as an io.ReadWriteCloser: each Write
// call emits one binary WebSocket message, and Read transparently
// reassembles across message boundaries so callers can read any number
// of bytes at a time, exactly as they would from a net.Conn.
type Conn struct {
	ws *websocket.Conn

	readBuf []byte // unconsumed bytes from the current inbound WS message
}

// New wraps an already-upgraded websocket connection.
func New(ws *websocket.Conn) *Conn {
	ws.SetPongHandler(func(string) error { return nil })
	return &Conn{ws: ws}
}

// Upgrade performs the HTTP -> WebSocket upgrade handshake and returns
// a byte-stream wrapper around the result. Fails the connection if the
// request is not a valid upgrade.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return New(ws), nil
}

// Read implements io.Reader, reassembling WebSocket binary messages
// into a continuous stream. Control frames (ping/pong/close) are
// handled transparently by gorilla/websocket's read loop and never
// reach this method as data.
func (c *Conn) Read(p []byte) (int, error) {
	for len(c.readBuf) == 0 {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}
		c.readBuf = data
	}

	n := copy(p, c.readBuf)
	c.readBuf = c.readBuf[n:]
	return n, nil
}

// Write implements io.Writer, sending p as a single WebSocket binary
// message. The RFB session never writes from more than one goroutine
// at a time, so no extra serialization is needed here.
func (c *Conn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame and closes the underlying TCP connection.
func (c *Conn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// SetReadDeadline propagates to the underlying connection, letting
// callers bound how long Read may block.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

var _ io.ReadWriteCloser = (*Conn)(nil)
