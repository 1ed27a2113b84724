package wire

import "encoding/binary"

// Scan searches buf for the next recognized frame prefix (55AA or 6699)
// and returns its offset. If buf begins with a prefix already, Scan
// returns 0. If no prefix is found, it returns -1 and the caller should
// keep the trailing 3 bytes in case a prefix straddles the
// next read.
//
// A read loop that accumulates bytes off a socket uses this to discard
// leading junk before attempting Unpack55AA/UnpackSealed6699, rather
// than assuming every read boundary lines up with a frame boundary.
func Scan(buf []byte) int {
	for i := 0; i+4 <= len(buf); i++ {
		v := binary.BigEndian.Uint32(buf[i : i+4])
		if v == uint32(Prefix55AA) || v == uint32(Prefix6699) {
			return i
		}
	}
	return -1
}

// PrefixAt reports which frame layout, if any, begins at the front of
// buf. ok is false if buf is too short to tell or does not start with a
// known prefix.
func PrefixAt(buf []byte) (p Prefix, ok bool) {
	if len(buf) < 4 {
		return 0, false
	}
	v := binary.BigEndian.Uint32(buf[:4])
	switch Prefix(v) {
	case Prefix55AA:
		return Prefix55AA, true
	case Prefix6699:
		return Prefix6699, true
	default:
		return 0, false
	}
}
