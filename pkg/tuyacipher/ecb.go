// Package tuyacipher implements the two symmetric ciphers the Tuya LAN
// protocol layers over its frame codec: AES-128-ECB with PKCS#7 padding
// (protocols 3.1-3.4) and AES-128-GCM with a 12-byte nonce (protocol 3.5).
//
// Go's standard library deliberately does not expose an ECB cipher.Mode
// (the mode is considered unsafe for general use), so ECB is implemented
// here block-by-block over crypto/aes.Block, the same approach used
// throughout the surrounding examples wherever a legacy protocol requires
// it. GCM uses crypto/cipher.NewGCMWithNonceSize directly; no third-party AEAD library
// is warranted since the standard implementation is constant-time and
// widely used across the ecosystem for exactly this purpose.
package tuyacipher

import (
	"bytes"
	"crypto/aes"
	"crypto/subtle"
	"fmt"
)

// BlockSize is the AES block size in bytes.
const BlockSize = aes.BlockSize // 16

// KeySize is the fixed key size the Tuya LAN protocol uses for AES-128.
const KeySize = 16

// PrepareKey converts a raw key value into a fixed 16-byte AES-128 key.
// The input's raw bytes are used verbatim (never a text transcoding that
// could alter bytes above 127): short keys are right-padded with 0x00,
// long keys are truncated.
func PrepareKey(key []byte) []byte {
	out := make([]byte, KeySize)
	copy(out, key)
	return out
}

// PadPKCS7 pads data to a multiple of BlockSize using PKCS#7.
func PadPKCS7(data []byte) []byte {
	padLen := BlockSize - (len(data) % BlockSize)
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte(nil), data...), padding...)
}

// UnpadPKCS7 removes PKCS#7 padding, optionally verifying every padding
// byte equals the pad length (verify=true). It rejects pad lengths of 0
// or greater than BlockSize, and any input not a multiple of BlockSize.
func UnpadPKCS7(data []byte, verify bool) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("tuyacipher: unpad: length %d is not a positive multiple of %d", len(data), BlockSize)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > BlockSize {
		return nil, fmt.Errorf("tuyacipher: unpad: bad padding length %d", padLen)
	}
	if verify {
		want := bytes.Repeat([]byte{byte(padLen)}, padLen)
		if subtle.ConstantTimeCompare(data[len(data)-padLen:], want) != 1 {
			return nil, fmt.Errorf("tuyacipher: unpad: padding bytes do not match padding length")
		}
	}
	return data[:len(data)-padLen], nil
}

// EncryptECB pads plaintext with PKCS#7 and encrypts it under AES-128-ECB.
// key must already be prepared to 16 bytes via PrepareKey.
func EncryptECB(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tuyacipher: new cipher: %w", err)
	}
	padded := PadPKCS7(plaintext)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += BlockSize {
		block.Encrypt(out[i:i+BlockSize], padded[i:i+BlockSize])
	}
	return out, nil
}

// EncryptECBNoPadding encrypts a single already-block-aligned buffer
// under AES-128-ECB without applying PKCS#7 padding. Used for the 3.4
// session-key derivation, which encrypts exactly one 16-byte block.
func EncryptECBNoPadding(key, plaintext []byte) ([]byte, error) {
	if len(plaintext)%BlockSize != 0 {
		return nil, fmt.Errorf("tuyacipher: encrypt: length %d is not a multiple of %d", len(plaintext), BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tuyacipher: new cipher: %w", err)
	}
	out := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i += BlockSize {
		block.Encrypt(out[i:i+BlockSize], plaintext[i:i+BlockSize])
	}
	return out, nil
}

// DecryptECB decrypts ciphertext under AES-128-ECB and removes PKCS#7
// padding. verifyPadding additionally checks every padding byte.
func DecryptECB(key, ciphertext []byte, verifyPadding bool) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("tuyacipher: decrypt: length %d is not a positive multiple of %d", len(ciphertext), BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tuyacipher: new cipher: %w", err)
	}
	padded := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += BlockSize {
		block.Decrypt(padded[i:i+BlockSize], ciphertext[i:i+BlockSize])
	}
	return UnpadPKCS7(padded, verifyPadding)
}
