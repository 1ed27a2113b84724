package session

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"testing"
	"time"

	"github.com/tuya-lan/tuya-go/pkg/catalog"
	"github.com/tuya-lan/tuya-go/pkg/tuyacipher"
	"github.com/tuya-lan/tuya-go/pkg/tuyatest"
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

// TestDeriveSessionKey35MatchesSpecConstruction independently reproduces
// the §4.6/§8 property for 3.5: session_key is the 16 bytes following
// the leading 12-byte nonce of
// GCM-encrypt(local_key, client_nonce XOR device_nonce, nonce =
// client_nonce[0:12], aad = empty). The expected value here is built
// straight from crypto/aes and crypto/cipher rather than through
// tuyacipher, so this test would catch a mistake in tuyacipher's own
// nonce-handling convention, not just a mismatch against it.
func TestDeriveSessionKey35MatchesSpecConstruction(t *testing.T) {
	key := testLocalKey()
	clientNonce := []byte("0123456789abcdef")
	deviceNonce := []byte("fedcba9876543210")

	mixed := make([]byte, 16)
	for i := range mixed {
		mixed[i] = clientNonce[i] ^ deviceNonce[i]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, 12)
	if err != nil {
		t.Fatalf("cipher.NewGCMWithNonceSize: %v", err)
	}
	sealed := gcm.Seal(nil, clientNonce[:12], mixed, nil)
	construction := append(append([]byte(nil), clientNonce[:12]...), sealed...)
	want := construction[12:28]

	e := &Engine{cfg: Config{Version: "3.5", LocalKey: key}}
	got, err := e.deriveSessionKey(clientNonce, deviceNonce)
	if err != nil {
		t.Fatalf("deriveSessionKey: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("session key = %x, want %x", got, want)
	}
	if len(got) != 16 {
		t.Errorf("session key length = %d, want 16", len(got))
	}
}

// TestDeriveSessionKey35Deterministic guards against the nonce being
// silently dropped and a random one substituted, which would make the
// derived key different on every call for the same inputs.
func TestDeriveSessionKey35Deterministic(t *testing.T) {
	e := &Engine{cfg: Config{Version: "3.5", LocalKey: testLocalKey()}}
	clientNonce := []byte("0123456789abcdef")
	deviceNonce := []byte("fedcba9876543210")

	a, err := e.deriveSessionKey(clientNonce, deviceNonce)
	if err != nil {
		t.Fatalf("deriveSessionKey: %v", err)
	}
	b, err := e.deriveSessionKey(clientNonce, deviceNonce)
	if err != nil {
		t.Fatalf("deriveSessionKey: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("deriveSessionKey is not deterministic: %x != %x", a, b)
	}
}

// TestDo35NegotiatesThenControl exercises the full 3.5 handshake over a
// sealed 6699 connection: nonce exchange, HMAC verification in both
// directions, session-key derivation, and a control round trip using
// the negotiated key, mirroring TestDo34NegotiatesThenControl.
func TestDo35NegotiatesThenControl(t *testing.T) {
	key := testLocalKey()
	deviceNonce := []byte("dddddddddddddddd")
	done := make(chan struct{})

	engine := newTestEngine(t, "3.5", func(dev *tuyatest.FakeDevice) {
		defer close(done)

		step1, err := dev.ReadSealed6699()
		if err != nil {
			t.Errorf("device read step1: %v", err)
			return
		}
		if step1.Command != 3 {
			t.Errorf("expected sessionKeyNegStart(3), got %d", step1.Command)
		}
		step1BodyLen := uint32(len(step1.Nonce) + len(step1.Sealed))
		step1AAD := wire.HeaderAAD6699(step1.Seq, step1.Command, step1BodyLen)
		clientNonce, err := tuyacipher.DecryptGCM(key, step1.Nonce, step1AAD, step1.Sealed)
		if err != nil {
			t.Errorf("device decrypt step1: %v", err)
			return
		}
		if len(clientNonce) != 16 {
			t.Errorf("expected 16-byte client nonce payload, got %d bytes", len(clientNonce))
			return
		}

		mac := hmacSum(key, clientNonce)
		step2Payload := append(append(make([]byte, 4), deviceNonce...), mac...)
		step2Nonce, err := tuyacipher.RandomNonce()
		if err != nil {
			t.Errorf("device nonce: %v", err)
			return
		}
		step2BodyLen := uint32(wire.NonceLen6699 + len(step2Payload) + wire.TagLen6699)
		step2AAD := wire.HeaderAAD6699(step1.Seq, 4, step2BodyLen)
		sealed, usedNonce, err := tuyacipher.EncryptGCM(key, step2Nonce, step2AAD, step2Payload)
		if err != nil {
			t.Errorf("device encrypt step2: %v", err)
			return
		}
		if err := dev.WriteSealed6699(step1.Seq, 4, usedNonce, sealed); err != nil {
			t.Errorf("device write step2: %v", err)
			return
		}

		step3, err := dev.ReadSealed6699()
		if err != nil {
			t.Errorf("device read step3: %v", err)
			return
		}
		if step3.Command != 5 {
			t.Errorf("expected sessionKeyNegFinish(5), got %d", step3.Command)
		}
		step3BodyLen := uint32(len(step3.Nonce) + len(step3.Sealed))
		step3AAD := wire.HeaderAAD6699(step3.Seq, step3.Command, step3BodyLen)
		plain3, err := tuyacipher.DecryptGCM(key, step3.Nonce, step3AAD, step3.Sealed)
		if err != nil {
			t.Errorf("device decrypt step3: %v", err)
			return
		}
		if !bytes.Equal(hmacSum(key, deviceNonce), plain3) {
			t.Errorf("client HMAC of device nonce did not match")
		}

		mixed := make([]byte, 16)
		for i := range mixed {
			mixed[i] = clientNonce[i] ^ deviceNonce[i]
		}
		block, _ := aes.NewCipher(key)
		gcm, _ := cipher.NewGCMWithNonceSize(block, 12)
		derivedSealed := gcm.Seal(nil, clientNonce[:12], mixed, nil)
		sessionKey := derivedSealed[:16]

		ctrl, err := dev.ReadSealed6699()
		if err != nil {
			t.Errorf("device read control: %v", err)
			return
		}
		if ctrl.Command != 13 {
			t.Errorf("expected controlNew(13), got %d", ctrl.Command)
		}
		bodyLen := uint32(len(ctrl.Nonce) + len(ctrl.Sealed))
		aad := wire.HeaderAAD6699(ctrl.Seq, ctrl.Command, bodyLen)
		plain, err := tuyacipher.DecryptGCM(sessionKey, ctrl.Nonce, aad, ctrl.Sealed)
		if err != nil {
			t.Errorf("device decrypt control: %v", err)
			return
		}
		if len(plain) > 15 {
			plain = plain[15:] // strip version header
		}
		var body map[string]any
		if err := json.Unmarshal(plain, &body); err != nil {
			t.Errorf("device unmarshal control: %v", err)
			return
		}

		reply, _ := json.Marshal(map[string]any{"success": true})
		replyNonce, err := tuyacipher.RandomNonce()
		if err != nil {
			t.Errorf("device reply nonce: %v", err)
			return
		}
		replyBodyLen := uint32(len(replyNonce) + len(reply) + tuyacipher.TagSize)
		replyAAD := wire.HeaderAAD6699(ctrl.Seq, ctrl.Command, replyBodyLen)
		sealedReply, usedReplyNonce, err := tuyacipher.EncryptGCM(sessionKey, replyNonce, replyAAD, reply)
		if err != nil {
			t.Errorf("device encrypt control reply: %v", err)
			return
		}
		if err := dev.WriteSealed6699(ctrl.Seq, ctrl.Command, usedReplyNonce, sealedReply); err != nil {
			t.Errorf("device write control reply: %v", err)
		}
	})

	resp, err := engine.Do(context.Background(), catalog.Control, catalog.BuildParams{
		DeviceID:  "eb0000000000000001",
		Timestamp: 1700000000,
		Dps:       map[string]any{"1": false},
	}, false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected success response, got %+v", resp)
	}
	if !engine.Negotiated() {
		t.Errorf("expected engine to report negotiated session")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fake device never finished")
	}
}

func hmacSum(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
