package tuyacipher

import (
	"crypto/md5" //nolint:gosec // required by the Tuya LAN discovery protocol, not a security boundary
	"crypto/rand"
)

// udpBroadcastSecret is the ASCII constant every Tuya LAN device and app
// derives the discovery broadcast key from.
const udpBroadcastSecret = "yGAdlopoPVldABfn"

// udpBroadcastKey is the process-wide, immutable key used to decrypt UDP
// discovery announcements. It is never modified after package
// initialization.
var udpBroadcastKey = deriveUDPBroadcastKey()

func deriveUDPBroadcastKey() []byte {
	sum := md5.Sum([]byte(udpBroadcastSecret)) //nolint:gosec // protocol-mandated KDF, not used for integrity/auth
	return sum[:]
}

// UDPBroadcastKey returns the fixed key used to decrypt Tuya UDP discovery
// broadcasts (MD5 of the shared ASCII secret).
func UDPBroadcastKey() []byte {
	out := make([]byte, len(udpBroadcastKey))
	copy(out, udpBroadcastKey)
	return out
}

// RandomClientNonce returns a random 16-byte nonce suitable for step 1 of
// the 3.4+/3.5 session-key negotiation. A fixed ASCII constant is also
// acceptable per the protocol (only the device's response depends on it
// being unpredictable to an off-path observer, not on it being secret),
// but a fresh random value is preferred for confinement against replay
// within a single negotiation.
func RandomClientNonce() ([]byte, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
