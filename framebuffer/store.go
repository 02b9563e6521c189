// Package framebuffer holds the single-writer, multi-reader
// framebuffer store shared between the capture loop and every RFB
// session.
package framebuffer

import (
	"sync"

	"github.com/coregrid/rfbshare/rfb"
)

// Snapshot is an immutable view of one generation of the framebuffer,
// safe to read without holding the store's lock: the store never
// mutates a pixel buffer once it has been published.
type Snapshot struct {
	FrameID    uint64
	DirtyRects []rfb.Rect
	Pixels     []byte
	Width      int
	Height     int
}

// Store is the process-wide canonical framebuffer. Geometry is learned
// from the first Write call and is immutable for the rest of the
// store's lifetime.
type Store struct {
	mu   sync.Mutex
	cond *sync.Cond

	width, height int
	pixels        []byte
	dirtyRects    []rfb.Rect
	frameCounter  uint64
	closed        bool
}

// New returns an empty store with no geometry yet; geometry is set by
// the first successful Write.
func New() *Store {
	s := &Store{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Write converts the BGRA source into a fresh RGBA buffer, then takes
// the exclusive lock, swaps that buffer in, installs the dirty-rect list
// (or a full-screen rect if it's empty), and bumps the frame counter
// exactly once. A Write whose dimensions differ from the geometry set by
// the first Write is dropped. It is the only mutator of the store and
// must only ever be called from the capture loop.
func (s *Store) Write(bgra []byte, dirty []rfb.Rect, srcWidth, srcHeight int) {
	rgba := rfb.BGRAToServerRGBA(bgra, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.frameCounter > 0 && (srcWidth != s.width || srcHeight != s.height) {
		return
	}

	s.width, s.height = srcWidth, srcHeight
	s.pixels = rgba

	clamped := rfb.ClampRects(dirty, srcWidth, srcHeight)
	if len(clamped) == 0 {
		clamped = []rfb.Rect{rfb.FullScreen(srcWidth, srcHeight)}
	}
	s.dirtyRects = clamped

	s.frameCounter++
	s.cond.Broadcast()
}

// Dimensions reports the framebuffer's geometry and whether it has been
// established yet (i.e. whether Write has run at least once).
func (s *Store) Dimensions() (width, height int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height, s.frameCounter > 0
}

// SnapshotIfNewer returns the current generation if it is strictly
// newer than lastSeen. The returned Pixels slice is never mutated
// after this call returns,
// so callers may read it without copying or holding any lock.
func (s *Store) SnapshotIfNewer(lastSeen uint64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frameCounter <= lastSeen {
		return Snapshot{}, false
	}

	return Snapshot{
		FrameID:    s.frameCounter,
		DirtyRects: append([]rfb.Rect(nil), s.dirtyRects...),
		Pixels:     s.pixels,
		Width:      s.width,
		Height:     s.height,
	}, true
}

// FrameCounter returns the current generation number.
func (s *Store) FrameCounter() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameCounter
}

// Closed reports whether Close has been called. Once closed, Write
// publishes nothing further, so SnapshotIfNewer returns no new
// generations.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases any goroutine blocked on the store's condition
// variable (kept for implementations that wait on it directly instead
// of polling; this store's own session loop polls).
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}
