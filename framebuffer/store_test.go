package framebuffer

import (
	"testing"

	"github.com/coregrid/rfbshare/rfb"
)

func bgra(w, h int, fill byte) []byte {
	buf := make([]byte, w*h*4)
	for i := range buf {
		buf[i] = fill
	}
	return buf
}

func TestWriteEstablishesGeometry(t *testing.T) {
	s := New()
	if _, _, ok := s.Dimensions(); ok {
		t.Fatalf("expected no geometry before first write")
	}

	s.Write(bgra(4, 3, 0x10), nil, 4, 3)

	w, h, ok := s.Dimensions()
	if !ok || w != 4 || h != 3 {
		t.Fatalf("Dimensions() = (%d,%d,%v), want (4,3,true)", w, h, ok)
	}
}

func TestWriteEmptyDirtyBecomesFullScreen(t *testing.T) {
	s := New()
	s.Write(bgra(10, 10, 0), nil, 10, 10)

	snap, ok := s.SnapshotIfNewer(0)
	if !ok {
		t.Fatalf("expected a snapshot newer than 0")
	}
	if len(snap.DirtyRects) != 1 || snap.DirtyRects[0] != rfb.FullScreen(10, 10) {
		t.Fatalf("DirtyRects = %v, want single full-screen rect", snap.DirtyRects)
	}
}

func TestWriteClampsOutOfBoundsRects(t *testing.T) {
	s := New()
	dirty := []rfb.Rect{
		{X: 0, Y: 0, W: 5, H: 5},
		{X: 8, Y: 8, W: 10, H: 10}, // out of bounds for a 10x10 fb
	}
	s.Write(bgra(10, 10, 0), dirty, 10, 10)

	snap, _ := s.SnapshotIfNewer(0)
	if len(snap.DirtyRects) != 1 || snap.DirtyRects[0] != dirty[0] {
		t.Fatalf("DirtyRects = %v, want only the in-bounds rect", snap.DirtyRects)
	}
}

func TestSnapshotIfNewerMonotonic(t *testing.T) {
	s := New()
	s.Write(bgra(2, 2, 1), nil, 2, 2)
	first, ok := s.SnapshotIfNewer(0)
	if !ok || first.FrameID != 1 {
		t.Fatalf("first snapshot = %+v, ok=%v", first, ok)
	}

	if _, ok := s.SnapshotIfNewer(first.FrameID); ok {
		t.Fatalf("expected no snapshot when caller already saw frame %d", first.FrameID)
	}

	s.Write(bgra(2, 2, 2), nil, 2, 2)
	second, ok := s.SnapshotIfNewer(first.FrameID)
	if !ok || second.FrameID != 2 {
		t.Fatalf("second snapshot = %+v, ok=%v", second, ok)
	}
}

func TestBGRAToRGBAConversion(t *testing.T) {
	s := New()
	src := []byte{10, 20, 30, 99} // B=10 G=20 R=30
	s.Write(src, nil, 1, 1)

	snap, _ := s.SnapshotIfNewer(0)
	want := []byte{30, 20, 10, 255}
	for i, b := range want {
		if snap.Pixels[i] != b {
			t.Fatalf("Pixels[%d] = %d, want %d", i, snap.Pixels[i], b)
		}
	}
}

func TestOldSnapshotUnaffectedByLaterWrite(t *testing.T) {
	s := New()
	s.Write([]byte{1, 1, 1, 1}, nil, 1, 1)
	first, _ := s.SnapshotIfNewer(0)

	s.Write([]byte{2, 2, 2, 2}, nil, 1, 1)

	if first.Pixels[0] == 2 {
		t.Fatalf("snapshot taken before the second write was mutated by it")
	}
}
