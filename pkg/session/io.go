package session

import (
	"errors"
	"net"
	"time"

	"github.com/tuya-lan/tuya-go/pkg/tuyacipher"
	"github.com/tuya-lan/tuya-go/pkg/tuyaerr"
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

// fillBuffer reads one chunk from the socket into e.buf, bounded by the
// configured connect timeout. Two consecutive read timeouts surface as
// a Timeout error; a single timeout is treated as "not there yet" and
// the caller tries again.
func (e *Engine) fillBuffer() error {
	if e.cfg.ConnectTimeout > 0 {
		_ = e.conn.SetReadDeadline(time.Now().Add(e.cfg.ConnectTimeout))
	}
	tmp := make([]byte, 4096)
	n, err := e.conn.Read(tmp)
	if n > 0 {
		e.buf = append(e.buf, tmp[:n]...)
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			e.consecutiveTimeouts++
			if e.consecutiveTimeouts >= 2 {
				e.consecutiveTimeouts = 0
				return tuyaerr.New(tuyaerr.Timeout, "session.read", "receive buffer did not fill in time")
			}
			return nil
		}
		return tuyaerr.Wrap(tuyaerr.Connect, "session.read", "socket read failed", err)
	}
	e.consecutiveTimeouts = 0
	return nil
}

// hmacKey returns the current key used for a 55AA frame's trailer:
// nil (CRC-32) for 3.1/3.3, the current session key otherwise.
func (e *Engine) hmacKey() []byte {
	if e.cfg.Version == "3.4" || e.cfg.Version == "3.5" {
		return e.sessionKey
	}
	return nil
}

// writeRawFrame frames rawBody directly with no cipher pass, used for
// the two session-negotiation messages the client sends.
func (e *Engine) writeRawFrame(seq, cmd uint32, rawBody []byte) error {
	var out []byte
	if e.cfg.sealed() {
		bodyLen := uint32(wire.NonceLen6699 + len(rawBody) + wire.TagLen6699)
		aad := wire.HeaderAAD6699(seq, cmd, bodyLen)
		nonce, err := tuyacipher.RandomNonce()
		if err != nil {
			return err
		}
		// Negotiation payloads are sent unencrypted at the JSON/cipher
		// layer, but a 6699 frame's body is defined as GCM-sealed, so
		// on 3.5 the raw nonce/HMAC bytes are still GCM-sealed under
		// the current session key to produce a valid frame.
		sealed, usedNonce, err := tuyacipher.EncryptGCM(e.sessionKey, nonce, aad, rawBody)
		if err != nil {
			return err
		}
		out = wire.Pack6699(seq, cmd, usedNonce, sealed)
	} else {
		out = wire.Pack55AA(seq, cmd, false, 0, rawBody, e.hmacKey())
	}
	_, err := e.conn.Write(out)
	return err
}

// readRawFrame55AA reads one 55AA frame and returns its body verbatim
// (after retcode auto-detection), without running the payload cipher.
// Used to read the negotiation step-2 response, whose payload gets its
// own ad hoc ECB decryption in negotiate.go.
func (e *Engine) readRawFrame55AA() (*wire.Frame, error) {
	for {
		off := wire.Scan(e.buf)
		if off == -1 {
			if len(e.buf) > 3 {
				e.buf = e.buf[len(e.buf)-3:]
			}
			if err := e.fillBuffer(); err != nil {
				return nil, err
			}
			continue
		}
		if off > 0 {
			e.buf = e.buf[off:]
		}
		f, n, err := wire.Unpack55AA(e.buf, e.hmacKey(), wire.RetCodeAuto)
		if err == wire.ErrShortBuffer {
			if err := e.fillBuffer(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, tuyaerr.Wrap(tuyaerr.Frame, "session.read", "malformed 55AA frame", err)
		}
		e.buf = e.buf[n:]
		return f, nil
	}
}

// readRawFrame6699 is readRawFrame55AA's 6699 counterpart.
func (e *Engine) readRawFrame6699() (*wire.SealedFrame, error) {
	for {
		off := wire.Scan(e.buf)
		if off == -1 {
			if len(e.buf) > 3 {
				e.buf = e.buf[len(e.buf)-3:]
			}
			if err := e.fillBuffer(); err != nil {
				return nil, err
			}
			continue
		}
		if off > 0 {
			e.buf = e.buf[off:]
		}
		f, n, err := wire.UnpackSealed6699(e.buf)
		if err == wire.ErrShortBuffer {
			if err := e.fillBuffer(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, tuyaerr.Wrap(tuyaerr.Frame, "session.read", "malformed 6699 frame", err)
		}
		e.buf = e.buf[n:]
		return f, nil
	}
}
