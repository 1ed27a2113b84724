package wire

import "encoding/binary"

// NonceLen6699 is the width of the per-frame GCM nonce carried in a 6699
// frame's body.
const NonceLen6699 = 12

// TagLen6699 is the width of the GCM authentication tag appended to a
// 6699 frame's sealed body.
const TagLen6699 = 16

// Pack6699 builds a complete 6699 frame around an already-sealed body
// (nonce, ciphertext, and tag are produced by pkg/tuyacipher; this
// package never sees the plaintext or the key). sealed must be
// ciphertext||tag.
func Pack6699(seq, cmd uint32, nonce, sealed []byte) []byte {
	bodyLen := len(nonce) + len(sealed)
	total := HeaderLen6699 + bodyLen + 4

	buf := make([]byte, total)
	binary.BigEndian.PutUint32(buf[0:4], uint32(Prefix6699))
	binary.BigEndian.PutUint16(buf[4:6], 0) // reserved
	binary.BigEndian.PutUint32(buf[6:10], seq)
	binary.BigEndian.PutUint32(buf[10:14], cmd)
	binary.BigEndian.PutUint32(buf[14:18], uint32(bodyLen))
	copy(buf[HeaderLen6699:], nonce)
	copy(buf[HeaderLen6699+len(nonce):], sealed)
	binary.BigEndian.PutUint32(buf[total-4:], uint32(Suffix6699))
	return buf
}

// HeaderAAD6699 returns the header bytes (4..18, i.e. reserved through
// length) used as the GCM additional authenticated data for a 6699
// frame, per the protocol's AAD convention.
func HeaderAAD6699(seq, cmd, bodyLen uint32) []byte {
	aad := make([]byte, 14)
	binary.BigEndian.PutUint16(aad[0:2], 0)
	binary.BigEndian.PutUint32(aad[2:6], seq)
	binary.BigEndian.PutUint32(aad[6:10], cmd)
	binary.BigEndian.PutUint32(aad[10:14], bodyLen)
	return aad
}

// UnpackSealed6699 parses a single 6699 frame from the front of buf
// without decrypting it. ErrShortBuffer means buf does not yet hold a
// complete frame.
func UnpackSealed6699(buf []byte) (*SealedFrame, int, error) {
	if len(buf) < HeaderLen6699 {
		return nil, 0, ErrShortBuffer
	}
	if binary.BigEndian.Uint32(buf[0:4]) != uint32(Prefix6699) {
		return nil, 0, ErrBadPrefix
	}

	seq := binary.BigEndian.Uint32(buf[6:10])
	cmd := binary.BigEndian.Uint32(buf[10:14])
	bodyLen := binary.BigEndian.Uint32(buf[14:18])
	if bodyLen > MaxPayloadLen {
		return nil, 0, ErrPayloadTooLarge
	}
	if bodyLen < NonceLen6699+TagLen6699 {
		return nil, 0, ErrPayloadTooLarge
	}

	total := HeaderLen6699 + int(bodyLen) + 4
	if len(buf) < total {
		return nil, 0, ErrShortBuffer
	}

	body := buf[HeaderLen6699 : HeaderLen6699+int(bodyLen)]
	suffix := binary.BigEndian.Uint32(buf[total-4 : total])

	f := &SealedFrame{
		Seq:     seq,
		Command: cmd,
		Nonce:   append([]byte(nil), body[:NonceLen6699]...),
		Sealed:  append([]byte(nil), body[NonceLen6699:]...),
	}
	if suffix != uint32(Suffix6699) {
		return f, total, ErrBadSuffix
	}
	return f, total, nil
}
