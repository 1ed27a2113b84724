package session

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/tuya-lan/tuya-go/pkg/catalog"
	"github.com/tuya-lan/tuya-go/pkg/tuyacipher"
	"github.com/tuya-lan/tuya-go/pkg/tuyaerr"
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

// negotiate runs the 3-step session-key handshake required by protocol
// 3.4 and 3.5 before any application command can be sent. Only the
// device's step-2 response is cipher-decrypted; the client's own two
// messages skip the JSON/ECB layer and are framed with the
// still-current key (the local key, until this handshake replaces it):
// as a 55AA body under that HMAC key on 3.4, and GCM-sealed under it
// into a 6699 body on 3.5.
func (e *Engine) negotiate() error {
	startCode, _ := catalog.Code(catalog.SessionKeyNegStart)
	respCode, _ := catalog.Code(catalog.SessionKeyNegResponse)
	finishCode, _ := catalog.Code(catalog.SessionKeyNegFinish)

	clientNonce, err := tuyacipher.RandomClientNonce()
	if err != nil {
		return tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "generate client nonce", err)
	}

	step1Seq := e.nextSeq()
	if err := e.writeRawFrame(step1Seq, startCode, clientNonce); err != nil {
		return tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "send step 1", err)
	}

	deviceNonce, deviceHMAC, err := e.readNegotiationResponse(respCode)
	if err != nil {
		return err
	}

	expected := hmac.New(sha256.New, e.sessionKey)
	expected.Write(clientNonce)
	if !hmac.Equal(expected.Sum(nil), deviceHMAC) {
		return tuyaerr.New(tuyaerr.Negotiation, "session.negotiate", "device HMAC did not verify against local key")
	}

	clientHMAC := hmac.New(sha256.New, e.sessionKey)
	clientHMAC.Write(deviceNonce)
	step3Seq := e.nextSeq()
	if err := e.writeRawFrame(step3Seq, finishCode, clientHMAC.Sum(nil)); err != nil {
		return tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "send step 3", err)
	}

	newKey, err := e.deriveSessionKey(clientNonce, deviceNonce)
	if err != nil {
		return tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "derive session key", err)
	}
	e.sessionKey = newKey
	return nil
}

// readNegotiationResponse reads the device's step-2 frame and returns
// its device_nonce||hmac payload, split into its two halves.
func (e *Engine) readNegotiationResponse(expectCode uint32) (deviceNonce, deviceHMAC []byte, err error) {
	var plain []byte
	if e.cfg.sealed() {
		f, ferr := e.readRawFrame6699()
		if ferr != nil {
			return nil, nil, tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "read step 2", ferr)
		}
		if f.Command != expectCode {
			return nil, nil, tuyaerr.New(tuyaerr.Negotiation, "session.negotiate", "unexpected command in step 2 response")
		}
		bodyLen := uint32(len(f.Nonce) + len(f.Sealed))
		aad := wire.HeaderAAD6699(f.Seq, f.Command, bodyLen)
		plain, err = tuyacipher.DecryptGCM(e.sessionKey, f.Nonce, aad, f.Sealed)
		if err != nil {
			return nil, nil, tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "decrypt step 2 payload", err)
		}
		// 3.5 step 2 carries a leading 4-byte return code ahead of the
		// device_nonce||hmac payload, unlike the app-frame codec's
		// optional retcode.
		if len(plain) >= 4 {
			plain = plain[4:]
		}
	} else {
		f, ferr := e.readRawFrame55AA()
		if ferr != nil {
			return nil, nil, tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "read step 2", ferr)
		}
		if f.Command != expectCode {
			return nil, nil, tuyaerr.New(tuyaerr.Negotiation, "session.negotiate", "unexpected command in step 2 response")
		}
		plain, err = tuyacipher.DecryptECB(e.sessionKey, f.Payload, false)
		if err != nil {
			return nil, nil, tuyaerr.Wrap(tuyaerr.Negotiation, "session.negotiate", "decrypt step 2 payload", err)
		}
	}

	if len(plain) < 16+32 {
		return nil, nil, tuyaerr.New(tuyaerr.Negotiation, "session.negotiate", "step 2 payload shorter than nonce+hmac")
	}
	return plain[:16], plain[16:48], nil
}

// deriveSessionKey computes the session key from the negotiated nonces.
// Both versions start from the same client_nonce XOR device_nonce
// block. 3.4 encrypts it under the local key with no padding (input is
// already exactly one AES block). 3.5 GCM-encrypts it under the local
// key with nonce = client_nonce[0:12] and empty AAD; since EncryptGCM
// omits the nonce from its output when the caller supplies one, the
// returned ciphertext||tag is exactly bytes[12:44] of the
// nonce||ciphertext||tag construction spec §4.6 describes, and its
// first 16 bytes (the ciphertext) are bytes[12:28] of that construction
// — the session key.
func (e *Engine) deriveSessionKey(clientNonce, deviceNonce []byte) ([]byte, error) {
	mixed := make([]byte, 16)
	for i := range mixed {
		mixed[i] = clientNonce[i] ^ deviceNonce[i]
	}

	if e.cfg.Version == "3.5" {
		sealed, _, err := tuyacipher.EncryptGCM(e.cfg.LocalKey, clientNonce[:12], nil, mixed)
		if err != nil {
			return nil, err
		}
		if len(sealed) < 16 {
			return nil, tuyaerr.New(tuyaerr.Crypto, "session.negotiate", "gcm output too short")
		}
		return append([]byte(nil), sealed[:16]...), nil
	}

	return tuyacipher.EncryptECBNoPadding(e.cfg.LocalKey, mixed)
}
