package tuyacipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

// NonceSize is the GCM nonce size the Tuya LAN protocol 3.5 uses.
const NonceSize = 12

// TagSize is the GCM authentication tag size.
const TagSize = 16

// EncryptGCM encrypts plaintext under AES-128-GCM. If nonce is nil, one is
// generated with NewNonce. The return value is nonce||ciphertext||tag
// unless the caller supplied its own nonce, in which case only
// ciphertext||tag is returned (the caller already knows the nonce).
func EncryptGCM(key, nonce, aad, plaintext []byte) (out []byte, usedNonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("tuyacipher: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, nil, fmt.Errorf("tuyacipher: new gcm: %w", err)
	}

	callerSupplied := nonce != nil
	if !callerSupplied {
		nonce = NewNonce()
	}
	if len(nonce) != NonceSize {
		return nil, nil, fmt.Errorf("tuyacipher: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	if callerSupplied {
		return sealed, nonce, nil
	}
	return append(append([]byte(nil), nonce...), sealed...), nonce, nil
}

// DecryptGCM decrypts data under AES-128-GCM. If nonce is nil, the leading
// NonceSize bytes of data are treated as the nonce and the remainder as
// ciphertext||tag. If nonce is supplied, data is treated as
// ciphertext||tag in full.
func DecryptGCM(key, nonce, aad, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tuyacipher: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("tuyacipher: new gcm: %w", err)
	}

	ciphertext := data
	if nonce == nil {
		if len(data) < NonceSize+TagSize {
			return nil, fmt.Errorf("tuyacipher: gcm payload too short: %d bytes", len(data))
		}
		nonce = data[:NonceSize]
		ciphertext = data[NonceSize:]
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("tuyacipher: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("tuyacipher: gcm authentication failed: %w", err)
	}
	return plaintext, nil
}

// NewNonce derives a 12-byte ASCII nonce from the current time (hundredths
// of a second since epoch), right-padded with '0' to 12 characters. This
// mirrors the reference client's per-message nonce for protocol 3.5.
// Callers sending at very high rates should prefer a random or
// monotonic-counter nonce instead; see spec design notes on nonce reuse.
func NewNonce() []byte {
	centis := strconv.FormatInt(time.Now().UnixMilli()/10, 10)
	buf := make([]byte, NonceSize)
	n := copy(buf, centis)
	for i := n; i < NonceSize; i++ {
		buf[i] = '0'
	}
	return buf[:NonceSize]
}

// RandomNonce returns a cryptographically random 12-byte nonce. Preferred
// over NewNonce when message rates could exceed the underlying clock's
// resolution, since a repeated nonce under the same key breaks GCM's
// authentication guarantee entirely.
func RandomNonce() ([]byte, error) {
	buf := make([]byte, NonceSize)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("tuyacipher: random nonce: %w", err)
	}
	return buf, nil
}
