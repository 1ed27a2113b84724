package wire

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash/crc32"
)

// trailerLen returns the width of a 55AA frame's trailer: 4 bytes for a
// CRC-32 checksum, 32 bytes for an HMAC-SHA-256 (used whenever hmacKey
// is set: protocol 3.4, both during and after session-key negotiation).
func trailerLen(hmacKey []byte) int {
	if hmacKey == nil {
		return 4
	}
	return sha256.Size
}

// computeTrailer returns the CRC-32 (big-endian) or HMAC-SHA-256 of data,
// depending on whether hmacKey is set.
func computeTrailer(hmacKey, data []byte) []byte {
	if hmacKey == nil {
		sum := crc32.ChecksumIEEE(data)
		return []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
	}
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(data)
	return mac.Sum(nil)
}

// verifyTrailer reports whether trailer matches the expected CRC-32 or
// HMAC-SHA-256 of data, using constant-time comparison for the HMAC case.
func verifyTrailer(hmacKey, data, trailer []byte) bool {
	want := computeTrailer(hmacKey, data)
	if hmacKey == nil {
		return len(trailer) == len(want) && string(trailer) == string(want)
	}
	return hmac.Equal(trailer, want)
}
