package rfb

// BGRAToServerRGBA converts a BGRA8 source buffer (row-major, as handed
// out by capture.Adapter) into the server's default RGBA layout: byte 0
// = R, 1 = G, 2 = B, 3 = unused and fixed at 255. dst must
// be the same length as src; passing dst == nil allocates a fresh
// buffer.
func BGRAToServerRGBA(src []byte, dst []byte) []byte {
	if dst == nil {
		dst = make([]byte, len(src))
	}
	for i := 0; i+3 < len(src); i += 4 {
		b, g, r := src[i], src[i+1], src[i+2]
		dst[i] = r
		dst[i+1] = g
		dst[i+2] = b
		dst[i+3] = 255
	}
	return dst
}
