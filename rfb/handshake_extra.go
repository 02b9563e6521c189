package rfb

import "io"

// WriteSecurityChoice sends the client's chosen security type (a single
// byte), the message following the server's security-type list.
func WriteSecurityChoice(w io.Writer, securityType uint8) error {
	_, err := w.Write([]byte{securityType})
	return err
}

// ReadSecurityChoice reads the client's chosen security type.
func ReadSecurityChoice(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteClientInit sends the ClientInit message (a single shared-flag
// byte); the value is accepted but ignored.
func WriteClientInit(w io.Writer, shared bool) error {
	var b byte
	if shared {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

// ReadClientInit reads the ClientInit message's shared-flag byte.
func ReadClientInit(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// WriteFramebufferUpdateRequest sends a FramebufferUpdateRequest
// message for the given region.
func WriteFramebufferUpdateRequest(w io.Writer, incremental bool, region Rect) error {
	msg := make([]byte, 10)
	msg[0] = FramebufferUpdateRequest
	if incremental {
		msg[1] = 1
	}
	putUint16(msg[2:4], uint16(region.X))
	putUint16(msg[4:6], uint16(region.Y))
	putUint16(msg[6:8], uint16(region.W))
	putUint16(msg[8:10], uint16(region.H))
	_, err := w.Write(msg)
	return err
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}
