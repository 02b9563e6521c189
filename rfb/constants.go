package rfb

// RFBVersion is the protocol version line this server speaks and
// expects back during the initial handshake.
const RFBVersion = "RFB 003.008\n"

// Client-to-server message types.
const (
	SetPixelFormat           = 0
	SetEncodings             = 2
	FramebufferUpdateRequest = 3
	KeyEvent                 = 4
	PointerEvent             = 5
	ClientCutText            = 6
)

// Server-to-client message types. Only FramebufferUpdate is ever sent;
// the rest are named for completeness against the wire protocol.
const (
	FramebufferUpdate  = 0
	SetColorMapEntries = 1
	Bell               = 2
	ServerCutText      = 3
)

// RawEncoding is the only pixel encoding this server offers.
const RawEncoding = 0

// SecurityNone is the only security type this server advertises.
const SecurityNone = 1

// SetPixelFormatLength is the total byte length of a SetPixelFormat
// client message, including its leading message-type byte.
const SetPixelFormatLength = 20

// ClientInitLength is the byte length of the ClientInit message.
const ClientInitLength = 1
