package tuyatest

import (
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

// ReadFrame55AA reads bytes off the device side of the pipe until one
// complete 55AA frame has arrived, and returns it. Client requests never
// carry a return code, so the frame is unpacked with wire.RetCodeNever and
// Payload holds the whole request body.
func (d *FakeDevice) ReadFrame55AA(hmacKey []byte) (*wire.Frame, error) {
	var buf []byte
	tmp := make([]byte, 4096)
	for {
		off := wire.Scan(buf)
		if off != -1 {
			if off > 0 {
				buf = buf[off:]
			}
			f, n, err := wire.Unpack55AA(buf, hmacKey, wire.RetCodeNever)
			if err == nil {
				buf = buf[n:]
				return f, nil
			}
			if err != wire.ErrShortBuffer {
				return nil, err
			}
		}
		n, err := d.Conn.Read(tmp)
		if err != nil {
			return nil, err
		}
		buf = append(buf, tmp[:n]...)
	}
}

// WriteFrame55AA packs and writes a 55AA frame to the device side of
// the pipe.
func (d *FakeDevice) WriteFrame55AA(seq, cmd uint32, includeRetCode bool, retCode uint32, payload, hmacKey []byte) error {
	out := wire.Pack55AA(seq, cmd, includeRetCode, retCode, payload, hmacKey)
	_, err := d.Conn.Write(out)
	return err
}

// ReadSealed6699 reads one 6699 frame off the device side of the pipe.
func (d *FakeDevice) ReadSealed6699() (*wire.SealedFrame, error) {
	var buf []byte
	tmp := make([]byte, 4096)
	for {
		off := wire.Scan(buf)
		if off != -1 {
			if off > 0 {
				buf = buf[off:]
			}
			f, n, err := wire.UnpackSealed6699(buf)
			if err == nil {
				buf = buf[n:]
				return f, nil
			}
			if err != wire.ErrShortBuffer {
				return nil, err
			}
		}
		n, err := d.Conn.Read(tmp)
		if err != nil {
			return nil, err
		}
		buf = append(buf, tmp[:n]...)
	}
}

// WriteSealed6699 packs and writes a 6699 frame to the device side of
// the pipe.
func (d *FakeDevice) WriteSealed6699(seq, cmd uint32, nonce, sealed []byte) error {
	out := wire.Pack6699(seq, cmd, nonce, sealed)
	_, err := d.Conn.Write(out)
	return err
}
