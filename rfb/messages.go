package rfb

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ParseSetPixelFormat parses a SetPixelFormat message body (the 20
// bytes starting at the message-type byte) into a PixelFormat.
func ParseSetPixelFormat(data []byte) (PixelFormat, error) {
	if len(data) != SetPixelFormatLength {
		return PixelFormat{}, fmt.Errorf("SetPixelFormat message must be exactly %d bytes, got %d", SetPixelFormatLength, len(data))
	}

	return PixelFormat{
		BitsPerPixel:  data[4],
		Depth:         data[5],
		BigEndianFlag: data[6],
		TrueColorFlag: data[7],
		RedMax:        binary.BigEndian.Uint16(data[8:10]),
		GreenMax:      binary.BigEndian.Uint16(data[10:12]),
		BlueMax:       binary.BigEndian.Uint16(data[12:14]),
		RedShift:      data[14],
		GreenShift:    data[15],
		BlueShift:     data[16],
		Padding:       [3]uint8{data[17], data[18], data[19]},
	}, nil
}

// SendRFBVersion sends the server's RFB protocol version line.
func SendRFBVersion(w io.Writer) error {
	_, err := w.Write([]byte(RFBVersion))
	return err
}

// ReadRFBVersion reads the peer's RFB protocol version line.
func ReadRFBVersion(r io.Reader) (string, error) {
	version := make([]byte, len(RFBVersion))
	if _, err := io.ReadFull(r, version); err != nil {
		return "", err
	}
	return string(version), nil
}

// SendSecurityTypes sends the list of security types the server offers.
func SendSecurityTypes(w io.Writer, types []uint8) error {
	msg := make([]byte, 1+len(types))
	msg[0] = uint8(len(types))
	copy(msg[1:], types)
	_, err := w.Write(msg)
	return err
}

// ReadSecurityTypes reads the list of security types the server offers.
func ReadSecurityTypes(r io.Reader) ([]uint8, error) {
	var numTypes uint8
	if err := readByte(r, &numTypes); err != nil {
		return nil, err
	}
	if numTypes == 0 {
		return nil, fmt.Errorf("server sent no security types")
	}

	types := make([]uint8, numTypes)
	if _, err := io.ReadFull(r, types); err != nil {
		return nil, err
	}
	return types, nil
}

// SendSecurityResult sends the 3.8 security handshake result (0 = OK).
func SendSecurityResult(w io.Writer, result uint32) error {
	var msg [4]byte
	binary.BigEndian.PutUint32(msg[:], result)
	_, err := w.Write(msg[:])
	return err
}

// ReadSecurityResult reads the 3.8 security handshake result.
func ReadSecurityResult(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// SendServerInit sends the ServerInit message: framebuffer geometry,
// pixel format, and desktop name.
func SendServerInit(w io.Writer, init ServerInit) error {
	msg := make([]byte, 24+len(init.Name))
	binary.BigEndian.PutUint16(msg[0:2], init.Width)
	binary.BigEndian.PutUint16(msg[2:4], init.Height)

	pf := init.PixelFormat
	msg[4] = pf.BitsPerPixel
	msg[5] = pf.Depth
	msg[6] = pf.BigEndianFlag
	msg[7] = pf.TrueColorFlag
	binary.BigEndian.PutUint16(msg[8:10], pf.RedMax)
	binary.BigEndian.PutUint16(msg[10:12], pf.GreenMax)
	binary.BigEndian.PutUint16(msg[12:14], pf.BlueMax)
	msg[14] = pf.RedShift
	msg[15] = pf.GreenShift
	msg[16] = pf.BlueShift
	msg[17], msg[18], msg[19] = pf.Padding[0], pf.Padding[1], pf.Padding[2]

	binary.BigEndian.PutUint32(msg[20:24], uint32(len(init.Name)))
	copy(msg[24:], init.Name)

	_, err := w.Write(msg)
	return err
}

// ReadServerInit reads the ServerInit message.
func ReadServerInit(r io.Reader) (ServerInit, error) {
	var init ServerInit
	header := make([]byte, 24)
	if _, err := io.ReadFull(r, header); err != nil {
		return init, err
	}

	init.Width = binary.BigEndian.Uint16(header[0:2])
	init.Height = binary.BigEndian.Uint16(header[2:4])
	init.PixelFormat = PixelFormat{
		BitsPerPixel:  header[4],
		Depth:         header[5],
		BigEndianFlag: header[6],
		TrueColorFlag: header[7],
		RedMax:        binary.BigEndian.Uint16(header[8:10]),
		GreenMax:      binary.BigEndian.Uint16(header[10:12]),
		BlueMax:       binary.BigEndian.Uint16(header[12:14]),
		RedShift:      header[14],
		GreenShift:    header[15],
		BlueShift:     header[16],
		Padding:       [3]uint8{header[17], header[18], header[19]},
	}

	nameLen := binary.BigEndian.Uint32(header[20:24])
	if nameLen > 0 {
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return init, err
		}
		init.Name = string(nameBytes)
	}
	init.NameLength = nameLen

	return init, nil
}

func readByte(r io.Reader, b *uint8) error {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	*b = buf[0]
	return nil
}
