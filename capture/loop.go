package capture

import (
	"context"
	"time"

	"github.com/coregrid/rfbshare/rfb"
)

// Store is the subset of framebuffer.Store the capture loop needs,
// kept narrow so tests can substitute a fake without importing the
// framebuffer package (and so framebuffer need not import capture).
type Store interface {
	Write(bgra []byte, dirty []rfb.Rect, srcWidth, srcHeight int)
}

// Loop drives an Adapter at ~30Hz and writes every acquired frame into
// a Store. It idles without touching the adapter
// while no client is active, to avoid spending GPU resources when
// nobody is watching.
type Loop struct {
	Adapter       Adapter
	Store         Store
	ActiveClients func() int32
	OnError       func(error)

	// Cadence floors the interval between successful acquisitions;
	// IdlePoll is how long the loop sleeps while ActiveClients()==0.
	// Both fall back to sensible defaults when zero.
	Cadence  time.Duration
	IdlePoll time.Duration

	firstAcquire bool
}

// Run drives the loop until ctx is cancelled, the adapter reports a
// fatal error, or reinitializing the adapter after a Lost status fails.
func (l *Loop) Run(ctx context.Context) {
	cadence := l.Cadence
	if cadence <= 0 {
		cadence = 33 * time.Millisecond
	}
	idlePoll := l.IdlePoll
	if idlePoll <= 0 {
		idlePoll = 100 * time.Millisecond
	}

	l.firstAcquire = true

	for {
		if ctx.Err() != nil {
			return
		}

		if l.ActiveClients() == 0 {
			if !sleepCtx(ctx, idlePoll) {
				return
			}
			continue
		}

		tickStart := time.Now()

		frame, status, err := l.Adapter.Acquire(ctx, 100)
		switch status {
		case Timeout:
			continue
		case Lost:
			if rerr := l.Adapter.Reinit(); rerr != nil {
				if l.OnError != nil {
					l.OnError(rerr)
				}
				return
			}
			l.firstAcquire = true
			continue
		case Fatal:
			if l.OnError != nil {
				l.OnError(err)
			}
			return
		case Acquired:
			dirty := rfb.ClampRects(frame.DirtyRects, frame.Width, frame.Height)
			if len(dirty) == 0 || l.firstAcquire {
				dirty = []rfb.Rect{rfb.FullScreen(frame.Width, frame.Height)}
			}
			l.firstAcquire = false
			l.Store.Write(frame.Pixels, dirty, frame.Width, frame.Height)
		}

		if elapsed := time.Since(tickStart); elapsed < cadence {
			if !sleepCtx(ctx, cadence-elapsed) {
				return
			}
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, returning false in
// the latter case.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
