package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coregrid/rfbshare/rfb"
)

// fakeAdapter lets tests script a sequence of Acquire outcomes.
type fakeAdapter struct {
	mu      sync.Mutex
	results []struct {
		frame  Frame
		status Status
		err    error
	}
	reinits int32
}

func (f *fakeAdapter) push(frame Frame, status Status, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, struct {
		frame  Frame
		status Status
		err    error
	}{frame, status, err})
}

func (f *fakeAdapter) Acquire(ctx context.Context, timeoutMS int) (Frame, Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return Frame{}, Timeout, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.frame, r.status, r.err
}

func (f *fakeAdapter) Reinit() error {
	atomic.AddInt32(&f.reinits, 1)
	return nil
}

func (f *fakeAdapter) Close() error { return nil }

type fakeStore struct {
	mu     sync.Mutex
	writes int
	lastW  int
	lastH  int
	lastD  []rfb.Rect
}

func (s *fakeStore) Write(bgra []byte, dirty []rfb.Rect, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.lastW, s.lastH = w, h
	s.lastD = dirty
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func TestLoopIdlesWithNoActiveClients(t *testing.T) {
	adapter := &fakeAdapter{}
	store := &fakeStore{}
	var active int32

	loop := &Loop{
		Adapter:       adapter,
		Store:         store,
		ActiveClients: func() int32 { return atomic.LoadInt32(&active) },
		IdlePoll:      5 * time.Millisecond,
		Cadence:       time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	if store.count() != 0 {
		t.Fatalf("expected no writes while active clients == 0, got %d", store.count())
	}
}

func TestLoopWritesOnAcquired(t *testing.T) {
	adapter := &fakeAdapter{}
	adapter.push(Frame{Pixels: make([]byte, 16), Width: 2, Height: 2, DirtyRects: nil}, Acquired, nil)
	store := &fakeStore{}
	active := int32(1)

	loop := &Loop{
		Adapter:       adapter,
		Store:         store,
		ActiveClients: func() int32 { return atomic.LoadInt32(&active) },
		IdlePoll:      time.Millisecond,
		Cadence:       time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	if store.count() == 0 {
		t.Fatalf("expected at least one write")
	}
	if len(store.lastD) != 1 || store.lastD[0] != rfb.FullScreen(2, 2) {
		t.Fatalf("first acquire's empty dirty list should become full-screen, got %v", store.lastD)
	}
}

func TestLoopReinitsOnLost(t *testing.T) {
	adapter := &fakeAdapter{}
	adapter.push(Frame{}, Lost, nil)
	store := &fakeStore{}
	active := int32(1)

	loop := &Loop{
		Adapter:       adapter,
		Store:         store,
		ActiveClients: func() int32 { return atomic.LoadInt32(&active) },
		IdlePoll:      time.Millisecond,
		Cadence:       time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	if atomic.LoadInt32(&adapter.reinits) == 0 {
		t.Fatalf("expected Reinit to be called after Lost status")
	}
}

func TestLoopStopsOnFatal(t *testing.T) {
	adapter := &fakeAdapter{}
	adapter.push(Frame{}, Fatal, context.DeadlineExceeded)
	store := &fakeStore{}
	active := int32(1)

	var gotErr error
	loop := &Loop{
		Adapter:       adapter,
		Store:         store,
		ActiveClients: func() int32 { return atomic.LoadInt32(&active) },
		OnError:       func(err error) { gotErr = err },
		IdlePoll:      time.Millisecond,
		Cadence:       time.Millisecond,
	}

	done := make(chan struct{})
	go func() {
		loop.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not return after Fatal status")
	}

	if gotErr == nil {
		t.Fatalf("expected OnError to be called")
	}
}
