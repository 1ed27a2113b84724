package tuya

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/tuya-lan/tuya-go/pkg/session"
	"github.com/tuya-lan/tuya-go/pkg/tuyacipher"
	"github.com/tuya-lan/tuya-go/pkg/tuyatest"
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

func newTestDevice(t *testing.T, serve func(*tuyatest.FakeDevice)) *Device {
	t.Helper()
	cfg := Config{
		DeviceID: "eb0000000000000001",
		Address:  "10.0.0.1",
		LocalKey: []byte("0123456789abcdef"),
		Version:  "3.3",
	}.normalize()

	scfg := cfg.toSessionConfig()
	scfg.Dial = tuyatest.Dial(serve)
	scfg.RetryLimit = 1
	scfg.RetryDelay = 10 * time.Millisecond
	scfg.Persistent = true

	return &Device{cfg: cfg, engine: session.NewEngine(scfg)}
}

// fakeStatusDevice answers a dpQuery request with the given dps map.
// dpQuery is header-exempt on every protocol version, so its payload
// carries no version-header prefix to strip.
func fakeStatusDevice(key []byte, dps map[string]any) func(*tuyatest.FakeDevice) {
	return func(dev *tuyatest.FakeDevice) {
		f, err := dev.ReadFrame55AA(nil)
		if err != nil {
			return
		}
		_, err = tuyacipher.DecryptECB(key, f.Payload, false)
		if err != nil {
			return
		}

		reply, _ := json.Marshal(map[string]any{"dps": dps})
		ct, err := tuyacipher.EncryptECB(key, reply)
		if err != nil {
			return
		}
		_ = dev.WriteFrame55AA(f.Seq, f.Command, true, 0, ct, nil)
	}
}

func TestStatusReturnsDps(t *testing.T) {
	key := []byte("0123456789abcdef")
	dev := newTestDevice(t, fakeStatusDevice(key, map[string]any{"1": true}))

	resp, err := dev.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !resp.Success || resp.Dps["1"] != true {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCachedStatusReflectsLastStatus(t *testing.T) {
	key := []byte("0123456789abcdef")
	dev := newTestDevice(t, fakeStatusDevice(key, map[string]any{"1": false}))

	if _, ok := dev.CachedStatus(); ok {
		t.Fatal("expected no cached status before any operation")
	}

	if _, err := dev.Status(context.Background()); err != nil {
		t.Fatalf("Status: %v", err)
	}

	cached, ok := dev.CachedStatus()
	if !ok {
		t.Fatal("expected a cached status after Status")
	}
	if cached.Dps["1"] != false {
		t.Errorf("unexpected cached dps: %v", cached.Dps)
	}
}

func TestNoWaitReturnsWithoutReadingReply(t *testing.T) {
	served := make(chan struct{})
	dev := newTestDevice(t, func(fd *tuyatest.FakeDevice) {
		defer close(served)
		if _, err := fd.ReadFrame55AA(nil); err != nil {
			t.Errorf("device read: %v", err)
		}
		// Deliberately never replies.
	})

	resp, err := dev.Heartbeat(context.Background(), NoWait())
	if err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected synthetic success response for nowait")
	}

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("fake device never received the request")
	}
}

func TestSetStatusSendsControlWithSwitchDp(t *testing.T) {
	key := []byte("0123456789abcdef")
	seen := make(chan map[string]any, 1)
	dev := newTestDevice(t, func(fd *tuyatest.FakeDevice) {
		f, err := fd.ReadFrame55AA(nil)
		if err != nil {
			t.Errorf("device read: %v", err)
			return
		}
		ct, _ := wire.StripVersionHeader(f.Payload)
		plain, err := tuyacipher.DecryptECB(key, ct, false)
		if err != nil {
			t.Errorf("device decrypt: %v", err)
			return
		}
		var body map[string]any
		_ = json.Unmarshal(plain, &body)
		seen <- body

		reply, _ := json.Marshal(map[string]any{"dps": map[string]any{"1": true}})
		replyCT, _ := tuyacipher.EncryptECB(key, reply)
		replyBody := wire.PrependVersionHeader("3.3", replyCT)
		_ = fd.WriteFrame55AA(f.Seq, f.Command, true, 0, replyBody, nil)
	})

	resp, err := dev.TurnOn(context.Background(), "1")
	if err != nil {
		t.Fatalf("TurnOn: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected success")
	}

	select {
	case body := <-seen:
		dps, ok := body["dps"].(map[string]any)
		if !ok || dps["1"] != true {
			t.Errorf("expected dps.1=true in request, got %+v", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fake device never received the request")
	}
}
