package log

import (
	"path/filepath"
	"testing"
)

func TestFileLoggerWritesAndReaderReplays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tlog")

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	fl.Log(Event{ConnectionID: "c1", Category: CategoryFrame, Direction: DirectionOut})
	fl.Log(Event{ConnectionID: "c1", Category: CategoryState, StateChange: &StateChangeEvent{NewState: "READY"}})
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	var got []Event
	for {
		e, err := r.Next()
		if err != nil {
			break
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("read %d events, want 2", len(got))
	}
	if got[1].StateChange == nil || got[1].StateChange.NewState != "READY" {
		t.Errorf("second event = %+v, want StateChange.NewState=READY", got[1])
	}
}

func TestFileLoggerIgnoresLogsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tlog")
	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	fl.Log(Event{ConnectionID: "c1"}) // must not panic or reopen the file
	if err := fl.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}
