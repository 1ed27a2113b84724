package wire

// VersionHeaderLen is the fixed width of the version header some
// commands prepend to their JSON payload before encryption: the ASCII
// protocol version string (e.g. "3.3"), zero-padded to this length.
const VersionHeaderLen = 15

// PrependVersionHeader returns version||zero-padding||payload, where the
// version portion is exactly VersionHeaderLen bytes. version is
// truncated if somehow longer than the header itself, which should
// never happen for any real protocol version string.
func PrependVersionHeader(version string, payload []byte) []byte {
	out := make([]byte, VersionHeaderLen+len(payload))
	n := copy(out, version)
	_ = n // remaining header bytes are already zero from make
	copy(out[VersionHeaderLen:], payload)
	return out
}

// StripVersionHeader drops the first VersionHeaderLen bytes of data and
// returns the rest. It does not check what those bytes contain; ok is
// false only when data is shorter than VersionHeaderLen.
func StripVersionHeader(data []byte) (payload []byte, ok bool) {
	if len(data) < VersionHeaderLen {
		return nil, false
	}
	return data[VersionHeaderLen:], true
}
