package wire

import "encoding/binary"

// RetCodeMode controls how Unpack55AA decides whether a frame's body
// begins with a 4-byte return code.
type RetCodeMode int

const (
	// RetCodeAuto peeks the body: if the first byte is '{' the body is
	// treated as a bare JSON payload with no return code; otherwise a
	// leading 4-byte return code is assumed. This is the device's own
	// convention; the session engine and the UDP discovery decoder read
	// every frame in this mode.
	RetCodeAuto RetCodeMode = iota
	// RetCodeNever forces the body to be treated as payload only.
	RetCodeNever
	// RetCodeAlways forces the leading 4 bytes to be treated as a
	// return code even if the body happens to start with '{'.
	RetCodeAlways
)

// Pack55AA builds a complete 55AA frame. If hmacKey is nil the trailer is
// a CRC-32 checksum (protocols before 3.4); otherwise it is an
// HMAC-SHA-256 keyed with hmacKey (on 3.4, the local key during
// session-key negotiation and the negotiated session key after it).
//
// retCode is only written when includeRetCode is true; most outbound
// client requests omit it entirely.
func Pack55AA(seq, cmd uint32, includeRetCode bool, retCode uint32, payload, hmacKey []byte) []byte {
	body := payload
	if includeRetCode {
		body = make([]byte, RetCodeLen+len(payload))
		binary.BigEndian.PutUint32(body, retCode)
		copy(body[RetCodeLen:], payload)
	}

	tLen := trailerLen(hmacKey)
	total := HeaderLen55AA + len(body) + tLen + 4 // +4 for the closing suffix
	buf := make([]byte, total)

	binary.BigEndian.PutUint32(buf[0:4], uint32(Prefix55AA))
	binary.BigEndian.PutUint32(buf[4:8], seq)
	binary.BigEndian.PutUint32(buf[8:12], cmd)
	binary.BigEndian.PutUint32(buf[12:16], uint32(len(body)+tLen+4))
	copy(buf[HeaderLen55AA:], body)

	trailer := computeTrailer(hmacKey, buf[:HeaderLen55AA+len(body)])
	copy(buf[HeaderLen55AA+len(body):], trailer)
	binary.BigEndian.PutUint32(buf[total-4:], uint32(Suffix55AA))

	return buf
}

// Unpack55AA parses a single 55AA frame from the front of buf. It returns
// the frame, the number of bytes consumed, and an error. ErrShortBuffer
// means buf does not yet hold a complete frame; the caller should read
// more and retry rather than treating it as a protocol violation.
func Unpack55AA(buf, hmacKey []byte, mode RetCodeMode) (*Frame, int, error) {
	if len(buf) < HeaderLen55AA {
		return nil, 0, ErrShortBuffer
	}
	if binary.BigEndian.Uint32(buf[0:4]) != uint32(Prefix55AA) {
		return nil, 0, ErrBadPrefix
	}

	seq := binary.BigEndian.Uint32(buf[4:8])
	cmd := binary.BigEndian.Uint32(buf[8:12])
	length := binary.BigEndian.Uint32(buf[12:16])
	tLen := trailerLen(hmacKey)

	if length < uint32(tLen+4) {
		return nil, 0, ErrPayloadTooLarge
	}
	bodyLen := int(length) - tLen - 4
	if bodyLen > MaxPayloadLen {
		return nil, 0, ErrPayloadTooLarge
	}

	total := HeaderLen55AA + bodyLen + tLen + 4
	if len(buf) < total {
		return nil, 0, ErrShortBuffer
	}

	body := buf[HeaderLen55AA : HeaderLen55AA+bodyLen]
	trailer := buf[HeaderLen55AA+bodyLen : total-4]
	suffix := binary.BigEndian.Uint32(buf[total-4 : total])

	f := &Frame{Seq: seq, Command: cmd}
	if suffix != uint32(Suffix55AA) {
		f.Invalid = true
	}
	if !verifyTrailer(hmacKey, buf[:HeaderLen55AA+bodyLen], trailer) {
		f.Invalid = true
	}

	hasRetCode := decideRetCode(mode, body)
	if hasRetCode && len(body) >= RetCodeLen {
		f.HasRetCode = true
		f.RetCode = binary.BigEndian.Uint32(body[:RetCodeLen])
		f.Payload = append([]byte(nil), body[RetCodeLen:]...)
	} else {
		f.Payload = append([]byte(nil), body...)
	}

	return f, total, nil
}

// decideRetCode implements the return-code auto-detection heuristic: a
// body that starts with '{' is bare JSON, anything else is assumed to
// carry a leading 4-byte return code.
func decideRetCode(mode RetCodeMode, body []byte) bool {
	switch mode {
	case RetCodeNever:
		return false
	case RetCodeAlways:
		return true
	default:
		return len(body) == 0 || body[0] != '{'
	}
}
