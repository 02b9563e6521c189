package wsstream

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
)

// TestHandshakeAcceptKeyIsDeterministic verifies that for the RFC 6455
// example key, the server replies with the RFC
// 6455 example accept value.
func TestHandshakeAcceptKeyIsDeterministic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			t.Errorf("Upgrade() error: %v", err)
			return
		}
		defer conn.Close()
	}))
	defer srv.Close()

	addr := srv.Listener.Addr().String()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()

	req := "GET / HTTP/1.1\r\n" +
		"Host: " + addr + "\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"

	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("ReadResponse() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}

	const want = "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got := resp.Header.Get("Sec-WebSocket-Accept"); got != want {
		t.Fatalf("Sec-WebSocket-Accept = %q, want %q", got, want)
	}
}

func TestReadReassemblesAcrossMessages(t *testing.T) {
	upgrade := make(chan *Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			t.Errorf("Upgrade() error: %v", err)
			return
		}
		upgrade <- conn
	}))
	defer srv.Close()

	wsURL := "ws://" + srv.Listener.Addr().String() + "/"
	clientWS, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("client Dial() error: %v", err)
	}
	defer clientWS.Close()

	serverConn := <-upgrade
	defer serverConn.Close()

	if err := clientWS.WriteMessage(websocket.BinaryMessage, []byte("hello ")); err != nil {
		t.Fatalf("client write error: %v", err)
	}
	if err := clientWS.WriteMessage(websocket.BinaryMessage, []byte("world")); err != nil {
		t.Fatalf("client write error: %v", err)
	}

	buf := make([]byte, 11)
	if _, err := readFull(serverConn, buf); err != nil {
		t.Fatalf("readFull error: %v", err)
	}
	if string(buf) != "hello world" {
		t.Fatalf("got %q, want %q", buf, "hello world")
	}
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
