package rfb

// PixelFormat is the wire layout a client's framebuffer pixels are
// encoded in: bit depth, byte order, and the bit position of each
// colour channel within a pixel.
type PixelFormat struct {
	BitsPerPixel  uint8
	Depth         uint8
	BigEndianFlag uint8
	TrueColorFlag uint8
	RedMax        uint16
	GreenMax      uint16
	BlueMax       uint16
	RedShift      uint8
	GreenShift    uint8
	BlueShift     uint8
	Padding       [3]uint8
}

// ServerInit is the handshake message announcing framebuffer geometry,
// the server's pixel format, and the desktop name.
type ServerInit struct {
	Width       uint16
	Height      uint16
	PixelFormat PixelFormat
	NameLength  uint32
	Name        string
}

// DefaultPixelFormat is the 32-bit true-colour RGBA layout this server
// always announces in ServerInit and always encodes updates in.
func DefaultPixelFormat() PixelFormat {
	return PixelFormat{
		BitsPerPixel:  32,
		Depth:         24,
		TrueColorFlag: 1,
		RedMax:        255,
		GreenMax:      255,
		BlueMax:       255,
		RedShift:      16,
		GreenShift:    8,
	}
}
