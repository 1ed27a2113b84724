package log

import (
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456789, time.UTC)
	original := Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryFrame,
		RemoteAddr:   "192.168.1.100:6668",
		DeviceID:     "bfabc1234567890def01",
		FrameParse: &FrameParseEvent{
			Seq:        3,
			Command:    0x0a,
			HasRetCode: true,
			RetCode:    0,
			PayloadLen: 42,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Category != original.Category {
		t.Errorf("Category: got %v, want %v", decoded.Category, original.Category)
	}
	if decoded.DeviceID != original.DeviceID {
		t.Errorf("DeviceID: got %q, want %q", decoded.DeviceID, original.DeviceID)
	}
	if decoded.FrameParse == nil || decoded.FrameParse.Seq != original.FrameParse.Seq {
		t.Errorf("FrameParse: got %+v, want %+v", decoded.FrameParse, original.FrameParse)
	}
}

func TestEventCBOREmptyPayloadRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerService,
		Category:     CategoryState,
		StateChange:  &StateChangeEvent{OldState: "CONNECTING", NewState: "READY"},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.StateChange == nil || decoded.StateChange.NewState != "READY" {
		t.Errorf("StateChange = %+v, want NewState=READY", decoded.StateChange)
	}
	if decoded.Frame != nil || decoded.FrameParse != nil || decoded.Error != nil {
		t.Error("unset union fields should decode as nil")
	}
}
