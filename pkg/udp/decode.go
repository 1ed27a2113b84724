package udp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tuya-lan/tuya-go/pkg/tuyacipher"
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

// decodeDatagram implements the discovery decoder's two-step fallback:
// framed-then-ciphered first, then a raw ECB decrypt of the whole
// datagram if framing itself fails.
func decodeDatagram(buf []byte) (Announcement, error) {
	plain, err := decodeFramed(buf)
	if err != nil {
		plain, err = decodeRawFallback(buf)
		if err != nil {
			return Announcement{}, err
		}
	}

	plain = bytes.TrimRight(plain, "\x00")

	var ann Announcement
	if err := json.Unmarshal(plain, &ann); err != nil {
		return Announcement{}, fmt.Errorf("udp: decode announcement JSON: %w", err)
	}
	return ann, nil
}

func decodeFramed(buf []byte) ([]byte, error) {
	off := wire.Scan(buf)
	if off == -1 {
		return nil, wire.ErrBadPrefix
	}
	buf = buf[off:]

	prefix, ok := wire.PrefixAt(buf)
	if !ok {
		return nil, wire.ErrBadPrefix
	}

	broadcastKey := tuyacipher.UDPBroadcastKey()

	switch prefix {
	case wire.Prefix55AA:
		f, _, err := wire.Unpack55AA(buf, broadcastKey, wire.RetCodeAuto)
		if err != nil {
			return nil, err
		}
		if looksLikeJSON(f.Payload) {
			return f.Payload, nil
		}
		return tuyacipher.DecryptECB(broadcastKey, f.Payload, false)

	case wire.Prefix6699:
		f, _, err := wire.UnpackSealed6699(buf)
		if err != nil {
			return nil, err
		}
		bodyLen := uint32(len(f.Nonce) + len(f.Sealed))
		aad := wire.HeaderAAD6699(f.Seq, f.Command, bodyLen)
		return tuyacipher.DecryptGCM(broadcastKey, f.Nonce, aad, f.Sealed)

	default:
		return nil, wire.ErrBadPrefix
	}
}

// decodeRawFallback treats the whole datagram as an ECB ciphertext under
// the broadcast key, for the odd malformed-frame case the discovery
// protocol has to tolerate.
func decodeRawFallback(buf []byte) ([]byte, error) {
	return tuyacipher.DecryptECB(tuyacipher.UDPBroadcastKey(), buf, false)
}

func looksLikeJSON(b []byte) bool {
	for _, c := range b {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		return c == '{'
	}
	return false
}
