package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coregrid/rfbshare/rfb"
	"github.com/coregrid/rfbshare/version"
)

// probeConn adapts a client-side *websocket.Conn to io.Reader/io.Writer so
// the rfb package's handshake and message helpers can drive it directly,
// the same way a browser-based noVNC client would see the wire.
type probeConn struct {
	ws      *websocket.Conn
	readBuf []byte
}

func (c *probeConn) Read(p []byte) (int, error) {
	for len(c.readBuf) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.readBuf = data
	}
	n := copy(p, c.readBuf)
	c.readBuf = c.readBuf[n:]
	return n, nil
}

func (c *probeConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func main() {
	var (
		url         = flag.String("url", "ws://localhost:5900/", "WebSocket URL of the rfbshare server")
		requests    = flag.Int("requests", 5, "Number of FramebufferUpdateRequest messages to send")
		interval    = flag.Duration("interval", 200*time.Millisecond, "Delay between requests")
		showVersion = flag.Bool("version", false, "Show version information")
		help        = flag.Bool("help", false, "Show this help message")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("rfbprobe %s\n", version.Get())
		os.Exit(0)
	}
	if *help {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "rfbprobe - minimal RFB-over-WebSocket client for manual interop checks\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		os.Exit(0)
	}

	ws, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *url, err)
	}
	defer ws.Close()

	conn := &probeConn{ws: ws}

	serverVersion, err := rfb.ReadRFBVersion(conn)
	if err != nil {
		log.Fatalf("reading server version: %v", err)
	}
	fmt.Printf("server version: %q\n", serverVersion)

	if err := rfb.SendRFBVersion(conn); err != nil {
		log.Fatalf("sending client version: %v", err)
	}

	types, err := rfb.ReadSecurityTypes(conn)
	if err != nil {
		log.Fatalf("reading security types: %v", err)
	}
	fmt.Printf("security types offered: %v\n", types)

	if err := rfb.WriteSecurityChoice(conn, rfb.SecurityNone); err != nil {
		log.Fatalf("sending security choice: %v", err)
	}
	if result, err := rfb.ReadSecurityResult(conn); err != nil {
		log.Fatalf("reading security result: %v", err)
	} else if result != 0 {
		log.Fatalf("security negotiation failed: %d", result)
	}

	if err := rfb.WriteClientInit(conn, false); err != nil {
		log.Fatalf("sending ClientInit: %v", err)
	}

	init, err := rfb.ReadServerInit(conn)
	if err != nil {
		log.Fatalf("reading ServerInit: %v", err)
	}
	fmt.Printf("desktop %q: %dx%d, %d bpp\n", init.Name, init.Width, init.Height, init.PixelFormat.BitsPerPixel)

	region := rfb.FullScreen(int(init.Width), int(init.Height))
	for i := 0; i < *requests; i++ {
		if err := rfb.WriteFramebufferUpdateRequest(conn, i > 0, region); err != nil {
			log.Fatalf("sending FramebufferUpdateRequest: %v", err)
		}

		if err := readOneUpdate(conn); err != nil {
			log.Fatalf("reading FramebufferUpdate %d: %v", i, err)
		}

		time.Sleep(*interval)
	}
}

func readOneUpdate(conn *probeConn) error {
	var msgType [1]byte
	if _, err := readFull(conn, msgType[:]); err != nil {
		return err
	}
	if msgType[0] != rfb.FramebufferUpdate {
		return fmt.Errorf("unexpected server message type %d", msgType[0])
	}

	hdr, err := rfb.ReadFramebufferUpdateHeader(conn)
	if err != nil {
		return err
	}
	fmt.Printf("update: %d rect(s)\n", hdr.NumRects)

	for i := uint16(0); i < hdr.NumRects; i++ {
		rect, err := rfb.ReadRectHeader(conn)
		if err != nil {
			return err
		}
		payload := make([]byte, rect.Rect.Bytes())
		if _, err := readFull(conn, payload); err != nil {
			return err
		}
		fmt.Printf("  rect %s encoding=%d (%d bytes)\n", rect.Rect, rect.Encoding, len(payload))
	}
	return nil
}

func readFull(conn *probeConn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
