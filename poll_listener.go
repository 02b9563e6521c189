package rfbshare

import (
	"errors"
	"net"
	"sync/atomic"
	"time"
)

// pollListener wraps a *net.TCPListener so Accept wakes up at least
// every interval to check whether Close has been called, instead of
// blocking forever on the underlying Accept.
type pollListener struct {
	tcp      *net.TCPListener
	interval time.Duration
	closed   atomic.Bool
}

func newPollListener(tcp *net.TCPListener, interval time.Duration) *pollListener {
	return &pollListener{tcp: tcp, interval: interval}
}

// Accept blocks until a connection arrives, the listener is closed, or
// an unrecoverable error occurs; deadline timeouts are retried silently.
func (p *pollListener) Accept() (net.Conn, error) {
	for {
		if p.closed.Load() {
			return nil, net.ErrClosed
		}
		if err := p.tcp.SetDeadline(time.Now().Add(p.interval)); err != nil {
			return nil, err
		}
		conn, err := p.tcp.Accept()
		if err == nil {
			return conn, nil
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			continue
		}
		return nil, err
	}
}

func (p *pollListener) Close() error {
	p.closed.Store(true)
	return p.tcp.Close()
}

func (p *pollListener) Addr() net.Addr { return p.tcp.Addr() }

var _ net.Listener = (*pollListener)(nil)
