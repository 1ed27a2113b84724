package wire

import "errors"

// Prefix identifies which of the two frame layouts a message uses.
type Prefix uint32

const (
	// Prefix55AA marks the frame layout used by protocol generations
	// 3.1 through 3.4: a CRC-32 or HMAC-SHA-256 trailer, no per-frame
	// nonce.
	Prefix55AA Prefix = 0x000055AA
	// Suffix55AA closes every 55AA frame.
	Suffix55AA Prefix = 0x0000AA55

	// Prefix6699 marks the frame layout introduced in protocol
	// generation 3.5: an AES-128-GCM sealed body carrying its own
	// nonce and authentication tag.
	Prefix6699 Prefix = 0x00006699
	// Suffix6699 closes every 6699 frame.
	Suffix6699 Prefix = 0x00009966
)

// HeaderLen55AA is the fixed portion of a 55AA header: prefix, sequence,
// command, and length, each a big-endian uint32.
const HeaderLen55AA = 16

// HeaderLen6699 is the fixed portion of a 6699 header: prefix, a reserved
// uint16, sequence, command, and length.
const HeaderLen6699 = 18

// RetCodeLen is the width of the optional leading return code some
// payloads carry.
const RetCodeLen = 4

// MaxPayloadLen bounds how large a single frame's payload may be. Frames
// claiming more are rejected outright rather than triggering an
// unbounded read while waiting for the rest of the frame to arrive.
const MaxPayloadLen = 1000

var (
	// ErrShortBuffer is returned by Unpack55AA and UnpackSealed6699 when buf does not
	// yet contain a complete frame. Callers should read more bytes and
	// try again; it is not a protocol error.
	ErrShortBuffer = errors.New("wire: incomplete frame, need more data")

	// ErrBadPrefix is returned when buf does not begin with a
	// recognized frame prefix. Callers should Scan forward.
	ErrBadPrefix = errors.New("wire: buffer does not start with a known frame prefix")

	// ErrBadSuffix is returned by UnpackSealed6699 when a 6699 frame's
	// trailing 4 bytes are not its suffix. A 55AA frame with a wrong
	// suffix is returned with Invalid set instead.
	ErrBadSuffix = errors.New("wire: frame suffix mismatch")

	// ErrPayloadTooLarge is returned when a frame header claims a
	// payload length beyond MaxPayloadLen.
	ErrPayloadTooLarge = errors.New("wire: declared payload length exceeds maximum")

	// ErrTrailerMismatch indicates a 55AA frame's CRC-32 or HMAC-SHA-256
	// trailer did not match the frame contents. Session code surfaces
	// this as Response.Invalid rather than aborting the connection.
	ErrTrailerMismatch = errors.New("wire: checksum/HMAC trailer mismatch")
)

// Frame is a decoded 55AA frame. Payload is exactly what arrived on the
// wire (still encrypted, if the connection is encrypted) with any
// leading return code already split out into RetCode.
type Frame struct {
	Seq     uint32
	Command uint32

	// HasRetCode reports whether the frame carried a 4-byte return code
	// ahead of the payload. RetCode is only meaningful when true.
	HasRetCode bool
	RetCode    uint32

	Payload []byte

	// Invalid is set when the frame's trailer failed to verify. The
	// frame is still returned rather than discarded, so callers that
	// don't care about integrity (e.g. inspecting a heartbeat ack) are
	// not forced to special-case it.
	Invalid bool
}

// SealedFrame is a decoded 6699 frame. Nonce and Sealed hold the
// still-sealed body; decryption happens one layer up, where the
// session key is known.
type SealedFrame struct {
	Seq     uint32
	Command uint32
	Nonce   []byte
	Sealed  []byte // ciphertext || 16-byte tag, AAD is the frame header
}
