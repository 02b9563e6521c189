package rfb

import (
	"bytes"
	"testing"
)

func TestEncodeFramebufferUpdateSingleRect(t *testing.T) {
	// 2x2 framebuffer, RGBA, every pixel distinct.
	pixels := []byte{
		1, 1, 1, 255, 2, 2, 2, 255,
		3, 3, 3, 255, 4, 4, 4, 255,
	}

	data, err := EncodeFramebufferUpdate([]Rect{{X: 0, Y: 0, W: 2, H: 2}}, pixels, 2)
	if err != nil {
		t.Fatalf("EncodeFramebufferUpdate() error = %v", err)
	}

	if data[0] != FramebufferUpdate {
		t.Fatalf("message type = %d, want %d", data[0], FramebufferUpdate)
	}
	wantLen := 4 + 12 + len(pixels)
	if len(data) != wantLen {
		t.Fatalf("len(data) = %d, want %d", len(data), wantLen)
	}
	if !bytes.Equal(data[16:], pixels) {
		t.Fatalf("pixel payload = %v, want %v", data[16:], pixels)
	}
}

func TestEncodeFramebufferUpdateSubRectOnlyCopiesItsRows(t *testing.T) {
	// 2x2 framebuffer; request only the right column (W=1 at X=1).
	pixels := []byte{
		1, 1, 1, 255, 9, 9, 9, 255,
		3, 3, 3, 255, 8, 8, 8, 255,
	}

	data, err := EncodeFramebufferUpdate([]Rect{{X: 1, Y: 0, W: 1, H: 2}}, pixels, 2)
	if err != nil {
		t.Fatalf("EncodeFramebufferUpdate() error = %v", err)
	}

	want := []byte{9, 9, 9, 255, 8, 8, 8, 255}
	if !bytes.Equal(data[16:], want) {
		t.Fatalf("pixel payload = %v, want %v", data[16:], want)
	}
}

func TestEncodeFramebufferUpdateRejectsOutOfBoundsRect(t *testing.T) {
	pixels := make([]byte, 4*4)
	_, err := EncodeFramebufferUpdate([]Rect{{X: 0, Y: 0, W: 4, H: 4}}, pixels, 1)
	if err == nil {
		t.Fatal("expected error for a rect that overruns the framebuffer")
	}
}

func TestFramebufferUpdateHeaderRoundTrip(t *testing.T) {
	pixels := make([]byte, 4*4)
	rects := []Rect{{X: 0, Y: 0, W: 1, H: 1}, {X: 1, Y: 1, W: 1, H: 1}}

	data, err := EncodeFramebufferUpdate(rects, pixels, 2)
	if err != nil {
		t.Fatalf("EncodeFramebufferUpdate() error = %v", err)
	}

	body := bytes.NewReader(data[1:]) // message-type byte already consumed by callers
	hdr, err := ReadFramebufferUpdateHeader(body)
	if err != nil {
		t.Fatalf("ReadFramebufferUpdateHeader() error = %v", err)
	}
	if int(hdr.NumRects) != len(rects) {
		t.Fatalf("NumRects = %d, want %d", hdr.NumRects, len(rects))
	}

	for i, want := range rects {
		rh, err := ReadRectHeader(body)
		if err != nil {
			t.Fatalf("ReadRectHeader(%d) error = %v", i, err)
		}
		if rh.Rect != want {
			t.Fatalf("rect %d = %v, want %v", i, rh.Rect, want)
		}
		if rh.Encoding != RawEncoding {
			t.Fatalf("rect %d encoding = %d, want %d", i, rh.Encoding, RawEncoding)
		}
		skip := make([]byte, want.Bytes())
		if _, err := body.Read(skip); err != nil {
			t.Fatalf("skipping pixel payload: %v", err)
		}
	}
}
