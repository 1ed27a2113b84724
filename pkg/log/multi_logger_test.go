package log

import "testing"

func TestMultiLoggerFansOutToAllLoggers(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	m := NewMultiLogger(a, b)

	m.Log(Event{ConnectionID: "c1", Category: CategoryFrame})
	m.Log(Event{ConnectionID: "c2", Category: CategoryState})

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Fatalf("a=%d b=%d events, want 2 each", len(a.events), len(b.events))
	}
	if a.events[0].ConnectionID != "c1" || b.events[1].ConnectionID != "c2" {
		t.Error("events delivered out of order or to the wrong logger")
	}
}

func TestMultiLoggerWithNoLoggersIsANoop(t *testing.T) {
	m := NewMultiLogger()
	m.Log(Event{Category: CategoryError})
}
