package rfb

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ClientMessageKind identifies which client-to-server message a
// ClientMessage carries.
type ClientMessageKind int

const (
	MsgSetPixelFormat ClientMessageKind = iota
	MsgSetEncodings
	MsgFramebufferUpdateRequest
	MsgKeyEvent
	MsgPointerEvent
	MsgClientCutText
)

// ClientMessage is the decoded form of one inbound RFB message.
type ClientMessage struct {
	Kind ClientMessageKind

	PixelFormat PixelFormat // MsgSetPixelFormat

	Encodings []int32 // MsgSetEncodings

	Incremental bool // MsgFramebufferUpdateRequest
	Region      Rect // MsgFramebufferUpdateRequest

	KeyDown bool   // MsgKeyEvent
	Key     uint32 // MsgKeyEvent

	PointerMask uint8  // MsgPointerEvent
	PointerX    uint16 // MsgPointerEvent
	PointerY    uint16 // MsgPointerEvent

	Text string // MsgClientCutText
}

// ReadClientMessage reads and decodes exactly one client-to-server RFB
// message from r, including its leading message-type byte. An unknown
// message type is reported as an error, which callers must treat as a
// protocol error terminating the session.
func ReadClientMessage(r io.Reader) (ClientMessage, error) {
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return ClientMessage{}, err
	}

	switch kind[0] {
	case SetPixelFormat:
		return readSetPixelFormat(r)
	case rfbSetEncodings:
		return readSetEncodings(r)
	case rfbFramebufferUpdateRequest:
		return readFramebufferUpdateRequest(r)
	case rfbKeyEvent:
		return readKeyEvent(r)
	case rfbPointerEvent:
		return readPointerEvent(r)
	case rfbClientCutText:
		return readClientCutText(r)
	default:
		return ClientMessage{}, fmt.Errorf("rfb: unknown client message type %d", kind[0])
	}
}

// Byte-valued aliases of the rfb package's untyped message-type
// constants, used for switch comparisons against a decoded byte.
const (
	rfbSetEncodings             = byte(SetEncodings)
	rfbFramebufferUpdateRequest = byte(FramebufferUpdateRequest)
	rfbKeyEvent                 = byte(KeyEvent)
	rfbPointerEvent             = byte(PointerEvent)
	rfbClientCutText            = byte(ClientCutText)
)

func readSetPixelFormat(r io.Reader) (ClientMessage, error) {
	var body [19]byte // remaining 19 bytes after the type byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return ClientMessage{}, err
	}
	full := append([]byte{SetPixelFormat}, body[:]...)
	pf, err := ParseSetPixelFormat(full)
	if err != nil {
		return ClientMessage{}, err
	}
	return ClientMessage{Kind: MsgSetPixelFormat, PixelFormat: pf}, nil
}

func readSetEncodings(r io.Reader) (ClientMessage, error) {
	var hdr [3]byte // 1 padding + u16 count
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return ClientMessage{}, err
	}
	n := binary.BigEndian.Uint16(hdr[1:3])
	encodings := make([]int32, n)
	var raw [4]byte
	for i := range encodings {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return ClientMessage{}, err
		}
		encodings[i] = int32(binary.BigEndian.Uint32(raw[:]))
	}
	return ClientMessage{Kind: MsgSetEncodings, Encodings: encodings}, nil
}

func readFramebufferUpdateRequest(r io.Reader) (ClientMessage, error) {
	var body [9]byte // incremental + 4x u16
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return ClientMessage{}, err
	}
	return ClientMessage{
		Kind:        MsgFramebufferUpdateRequest,
		Incremental: body[0] != 0,
		Region: Rect{
			X: int(binary.BigEndian.Uint16(body[1:3])),
			Y: int(binary.BigEndian.Uint16(body[3:5])),
			W: int(binary.BigEndian.Uint16(body[5:7])),
			H: int(binary.BigEndian.Uint16(body[7:9])),
		},
	}, nil
}

func readKeyEvent(r io.Reader) (ClientMessage, error) {
	var body [7]byte // down-flag + 2 padding + u32 key
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return ClientMessage{}, err
	}
	return ClientMessage{
		Kind:    MsgKeyEvent,
		KeyDown: body[0] != 0,
		Key:     binary.BigEndian.Uint32(body[3:7]),
	}, nil
}

func readPointerEvent(r io.Reader) (ClientMessage, error) {
	var body [5]byte // button-mask + u16 x + u16 y
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return ClientMessage{}, err
	}
	return ClientMessage{
		Kind:        MsgPointerEvent,
		PointerMask: body[0],
		PointerX:    binary.BigEndian.Uint16(body[1:3]),
		PointerY:    binary.BigEndian.Uint16(body[3:5]),
	}, nil
}

func readClientCutText(r io.Reader) (ClientMessage, error) {
	var hdr [7]byte // 3 padding + u32 length
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return ClientMessage{}, err
	}
	length := binary.BigEndian.Uint32(hdr[3:7])
	text := make([]byte, length)
	if _, err := io.ReadFull(r, text); err != nil {
		return ClientMessage{}, err
	}
	return ClientMessage{Kind: MsgClientCutText, Text: string(text)}, nil
}
