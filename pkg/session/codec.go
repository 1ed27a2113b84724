package session

import (
	"bytes"
	"fmt"

	"github.com/tuya-lan/tuya-go/pkg/tuyacipher"
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

// encodePayload encrypts a JSON payload for a 55AA/6699 frame body,
// applying the version header per §4.4 when includeHeader is set. seq
// and cmd are needed only for the 3.5 GCM additional authenticated
// data, which covers the frame header. The second return value is the
// nonce used, non-nil only for 3.5.
func (e *Engine) encodePayload(seq, cmd uint32, jsonPayload []byte, includeHeader bool) (body []byte, nonce []byte, err error) {
	switch e.cfg.Version {
	case "3.1":
		ct, err := tuyacipher.EncryptECB(e.sessionKey, jsonPayload)
		return ct, nil, err

	case "3.3":
		ct, err := tuyacipher.EncryptECB(e.sessionKey, jsonPayload)
		if err != nil {
			return nil, nil, err
		}
		if includeHeader {
			ct = wire.PrependVersionHeader(e.cfg.Version, ct)
		}
		return ct, nil, nil

	case "3.4":
		plain := jsonPayload
		if includeHeader {
			plain = wire.PrependVersionHeader(e.cfg.Version, plain)
		}
		ct, err := tuyacipher.EncryptECB(e.sessionKey, plain)
		return ct, nil, err

	case "3.5":
		plain := jsonPayload
		if includeHeader {
			plain = wire.PrependVersionHeader(e.cfg.Version, plain)
		}
		nonce, err := tuyacipher.RandomNonce()
		if err != nil {
			return nil, nil, err
		}
		bodyLen := uint32(wire.NonceLen6699 + len(plain) + wire.TagLen6699)
		aad := wire.HeaderAAD6699(seq, cmd, bodyLen)
		sealed, usedNonce, err := tuyacipher.EncryptGCM(e.sessionKey, nonce, aad, plain)
		if err != nil {
			return nil, nil, err
		}
		return sealed, usedNonce, nil

	default:
		return nil, nil, fmt.Errorf("session: unsupported protocol version %q", e.cfg.Version)
	}
}

// decodePayload55AA reverses encodePayload for a received 55AA frame's
// body (already retcode-stripped).
func (e *Engine) decodePayload55AA(body []byte, hadHeader bool) ([]byte, error) {
	switch e.cfg.Version {
	case "3.1":
		return tuyacipher.DecryptECB(e.sessionKey, body, false)

	case "3.3":
		ct := body
		if hadHeader && len(ct) >= wire.VersionHeaderLen {
			ct = ct[wire.VersionHeaderLen:]
		}
		return tuyacipher.DecryptECB(e.sessionKey, ct, false)

	case "3.4":
		plain, err := tuyacipher.DecryptECB(e.sessionKey, body, false)
		if err != nil {
			return nil, err
		}
		if hadHeader && len(plain) >= wire.VersionHeaderLen && looksLikeVersionHeader(plain, e.cfg.Version) {
			plain = plain[wire.VersionHeaderLen:]
		}
		return plain, nil

	default:
		return nil, fmt.Errorf("session: decodePayload55AA called for protocol version %q", e.cfg.Version)
	}
}

// decodePayload6699 handles the 3.5 quirks: the sealed body may be
// GCM-encrypted or, for some control responses, plain JSON with no
// encryption at all; a leading 4-byte retcode may or may not precede
// the version header.
func (e *Engine) decodePayload6699(f *wire.SealedFrame, hadHeader bool) ([]byte, error) {
	plain := append(append([]byte(nil), f.Nonce...), f.Sealed...)
	if looksLikeJSON(f.Sealed) {
		plain = f.Sealed
	} else {
		bodyLen := uint32(len(f.Nonce) + len(f.Sealed))
		aad := wire.HeaderAAD6699(f.Seq, f.Command, bodyLen)
		out, err := tuyacipher.DecryptGCM(e.sessionKey, f.Nonce, aad, f.Sealed)
		if err != nil {
			return nil, err
		}
		plain = out
	}

	if hadHeader {
		versionBytes := []byte(e.cfg.Version)
		switch {
		case len(plain) >= wire.VersionHeaderLen && bytes.HasPrefix(plain, versionBytes):
			// Header starts immediately, no retcode.
			plain = plain[wire.VersionHeaderLen:]
		case len(plain) >= 4+wire.VersionHeaderLen && bytes.HasPrefix(plain[4:], versionBytes):
			plain = plain[4+wire.VersionHeaderLen:]
		}
		// Neither case matching means this reply carries no version
		// header at all (some 3.5 control responses omit it); leave
		// plain untouched rather than blindly chopping off 15 bytes.
	}
	return plain, nil
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

func looksLikeVersionHeader(plain []byte, version string) bool {
	return bytes.HasPrefix(plain, []byte(version))
}
