package rfb

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeFramebufferUpdate builds a FramebufferUpdate message (message
// type 0) carrying rects in Raw encoding. pixels must be
// a fbWidth*fbHeight*4 RGBA buffer; each rect is copied out of it
// row-by-row since a rect need not span the full framebuffer width.
func EncodeFramebufferUpdate(rects []Rect, pixels []byte, fbWidth int) ([]byte, error) {
	size := 4
	for _, r := range rects {
		size += 12 + r.Bytes()
	}

	buf := make([]byte, size)
	buf[0] = FramebufferUpdate
	buf[1] = 0 // padding
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(rects)))

	off := 4
	for _, r := range rects {
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(r.X))
		binary.BigEndian.PutUint16(buf[off+2:off+4], uint16(r.Y))
		binary.BigEndian.PutUint16(buf[off+4:off+6], uint16(r.W))
		binary.BigEndian.PutUint16(buf[off+6:off+8], uint16(r.H))
		binary.BigEndian.PutUint32(buf[off+8:off+12], RawEncoding)
		off += 12

		for row := 0; row < r.H; row++ {
			srcOff := ((r.Y+row)*fbWidth + r.X) * 4
			n := r.W * 4
			if srcOff < 0 || srcOff+n > len(pixels) {
				return nil, fmt.Errorf("rect %s out of bounds for %d-byte framebuffer", r, len(pixels))
			}
			copy(buf[off:off+n], pixels[srcOff:srcOff+n])
			off += n
		}
	}

	return buf, nil
}

// FramebufferUpdateHeader is the decoded form of the fixed-size prefix
// of a FramebufferUpdate message (the rectangle count; per-rect headers
// are read with ReadRectHeader), used by clients reading the stream off
// the wire.
type FramebufferUpdateHeader struct {
	NumRects uint16
}

// RectHeader is one rectangle header within a FramebufferUpdate.
type RectHeader struct {
	Rect     Rect
	Encoding int32
}

// ReadFramebufferUpdateHeader reads the padding+count bytes that follow
// the message-type byte. Callers must have already consumed the
// message-type byte.
func ReadFramebufferUpdateHeader(r io.Reader) (FramebufferUpdateHeader, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return FramebufferUpdateHeader{}, err
	}
	return FramebufferUpdateHeader{NumRects: binary.BigEndian.Uint16(hdr[1:3])}, nil
}

// ReadRectHeader reads one 12-byte rectangle header.
func ReadRectHeader(r io.Reader) (RectHeader, error) {
	var buf [12]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return RectHeader{}, err
	}
	return RectHeader{
		Rect: Rect{
			X: int(binary.BigEndian.Uint16(buf[0:2])),
			Y: int(binary.BigEndian.Uint16(buf[2:4])),
			W: int(binary.BigEndian.Uint16(buf[4:6])),
			H: int(binary.BigEndian.Uint16(buf[6:8])),
		},
		Encoding: int32(binary.BigEndian.Uint32(buf[8:12])),
	}, nil
}
