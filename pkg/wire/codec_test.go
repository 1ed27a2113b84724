package wire

import (
	"bytes"
	"testing"
)

func TestPack55AAUnpack55AARoundTripCRC(t *testing.T) {
	payload := []byte(`{"devId":"abc","dps":{"1":true}}`)
	buf := Pack55AA(7, 0x0a, false, 0, payload, nil)

	f, n, err := Unpack55AA(buf, nil, RetCodeAuto)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if f.Invalid {
		t.Error("frame unexpectedly marked invalid")
	}
	if f.Seq != 7 || f.Command != 0x0a {
		t.Errorf("seq/cmd = %d/%d, want 7/10", f.Seq, f.Command)
	}
	if f.HasRetCode {
		t.Error("body starts with '{', should not be treated as carrying a return code")
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Errorf("payload = %q, want %q", f.Payload, payload)
	}
}

func TestPack55AAUnpack55AARoundTripHMACWithRetCode(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 16)
	payload := []byte(`{"1":true}`)
	buf := Pack55AA(3, 0x08, true, 0, payload, key)

	f, _, err := Unpack55AA(buf, key, RetCodeAuto)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !f.HasRetCode || f.RetCode != 0 {
		t.Errorf("HasRetCode=%v RetCode=%d, want true/0", f.HasRetCode, f.RetCode)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Errorf("payload = %q, want %q", f.Payload, payload)
	}
}

func TestUnpack55AAShortBufferWaitsForMore(t *testing.T) {
	buf := Pack55AA(1, 1, false, 0, []byte(`{}`), nil)
	_, _, err := Unpack55AA(buf[:len(buf)-2], nil, RetCodeAuto)
	if err != ErrShortBuffer {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
}

func TestUnpack55AADetectsTamperedTrailer(t *testing.T) {
	buf := Pack55AA(1, 1, false, 0, []byte(`{}`), nil)
	buf[len(buf)-5] ^= 0xFF // corrupt a trailer byte

	f, _, err := Unpack55AA(buf, nil, RetCodeAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Invalid {
		t.Error("expected Invalid=true for a corrupted trailer")
	}
}

func TestUnpack55AARejectsBadPrefix(t *testing.T) {
	buf := append([]byte{0, 0, 0, 0}, make([]byte, 16)...)
	if _, _, err := Unpack55AA(buf, nil, RetCodeAuto); err != ErrBadPrefix {
		t.Fatalf("err = %v, want ErrBadPrefix", err)
	}
}

func TestPack6699UnpackSealed6699RoundTrip(t *testing.T) {
	nonce := []byte("abcdefghijkl")
	sealed := bytes.Repeat([]byte{0x9}, 32) // stand-in ciphertext||tag
	buf := Pack6699(5, 0x0d, nonce, sealed)

	f, n, err := UnpackSealed6699(buf)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if f.Seq != 5 || f.Command != 0x0d {
		t.Errorf("seq/cmd = %d/%d, want 5/13", f.Seq, f.Command)
	}
	if !bytes.Equal(f.Nonce, nonce) {
		t.Errorf("nonce mismatch")
	}
	if !bytes.Equal(f.Sealed, sealed) {
		t.Errorf("sealed body mismatch")
	}
}

func TestScanFindsPrefixAfterJunk(t *testing.T) {
	frame := Pack55AA(1, 1, false, 0, []byte(`{}`), nil)
	junk := []byte{0x01, 0x02, 0x03}
	buf := append(append([]byte(nil), junk...), frame...)

	off := Scan(buf)
	if off != len(junk) {
		t.Fatalf("offset = %d, want %d", off, len(junk))
	}
}

func TestScanReturnsMinusOneWithoutAPrefix(t *testing.T) {
	if off := Scan([]byte{1, 2, 3, 4, 5, 6}); off != -1 {
		t.Errorf("offset = %d, want -1", off)
	}
}

func TestUnpack55AAAcceptsMaxPayloadLen(t *testing.T) {
	payload := append([]byte{'{'}, bytes.Repeat([]byte{'x'}, MaxPayloadLen-1)...)
	buf := Pack55AA(1, 1, false, 0, payload, nil)
	f, _, err := Unpack55AA(buf, nil, RetCodeAuto)
	if err != nil {
		t.Fatalf("unpack of a %d-byte payload: %v", MaxPayloadLen, err)
	}
	if len(f.Payload) != MaxPayloadLen {
		t.Errorf("payload length = %d, want %d", len(f.Payload), MaxPayloadLen)
	}
}

func TestUnpack55AARejectsPayloadOverMax(t *testing.T) {
	payload := bytes.Repeat([]byte{'x'}, MaxPayloadLen+1)
	buf := Pack55AA(1, 1, false, 0, payload, nil)
	if _, _, err := Unpack55AA(buf, nil, RetCodeAuto); err != ErrPayloadTooLarge {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestUnpackSealed6699RejectsBodyOverMax(t *testing.T) {
	nonce := bytes.Repeat([]byte{0x1}, NonceLen6699)
	sealed := bytes.Repeat([]byte{0x2}, MaxPayloadLen+1-NonceLen6699)
	buf := Pack6699(1, 1, nonce, sealed)
	if _, _, err := UnpackSealed6699(buf); err != ErrPayloadTooLarge {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestVersionHeaderRoundTrip(t *testing.T) {
	payload := []byte(`{"dps":{"1":true}}`)
	framed := PrependVersionHeader("3.3", payload)
	if len(framed) != VersionHeaderLen+len(payload) {
		t.Fatalf("len = %d, want %d", len(framed), VersionHeaderLen+len(payload))
	}

	stripped, ok := StripVersionHeader(framed)
	if !ok {
		t.Fatal("StripVersionHeader reported not-ok on a valid header")
	}
	if !bytes.Equal(stripped, payload) {
		t.Errorf("stripped payload = %q, want %q", stripped, payload)
	}
}
