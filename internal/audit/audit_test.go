package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestEmitWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	e, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	e.Record(KindAccountCreated, "acct-1", "", map[string]any{"name": "Globex"})
	e.Record(KindPollTick, "", "app-1", map[string]any{"attempt": 3})
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := readEvents(t, path)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != KindAccountCreated || events[0].AccountID != "acct-1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != KindPollTick || events[1].ApplicationID != "app-1" {
		t.Errorf("second event = %+v", events[1])
	}
	for i, evt := range events {
		if evt.Timestamp.IsZero() {
			t.Errorf("event %d has zero timestamp", i)
		}
	}
}

func TestEmitPreservesExplicitTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	e, err := NewEmitter(path)
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := e.Emit(Event{Timestamp: ts, Kind: KindDecisionFound}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	e.Close()

	events := readEvents(t, path)
	if len(events) != 1 || !events[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", events[0].Timestamp, ts)
	}
}

func TestEmitterAppendsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	for _, kind := range []string{KindCreditSubmitted, KindStepAdvanced} {
		e, err := NewEmitter(path)
		if err != nil {
			t.Fatal(err)
		}
		e.Record(kind, "", "app-1", nil)
		e.Close()
	}

	events := readEvents(t, path)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 across sessions", len(events))
	}
}

func TestNilEmitterIsNoOp(t *testing.T) {
	var e *Emitter

	if err := e.Emit(Event{Kind: KindPollSkipped}); err != nil {
		t.Errorf("nil Emit returned %v", err)
	}
	e.Record(KindPollSkipped, "", "", nil)
	if err := e.Close(); err != nil {
		t.Errorf("nil Close returned %v", err)
	}
}

func TestEmitterConcurrentUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	e, err := NewEmitter(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				e.Record(KindPollTick, "", "app-1", nil)
			}
		}()
	}
	wg.Wait()
	e.Close()

	events := readEvents(t, path)
	if len(events) != 200 {
		t.Errorf("got %d events, want 200", len(events))
	}
}

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var evt Event
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			t.Fatalf("parse line %q: %v", sc.Text(), err)
		}
		events = append(events, evt)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return events
}
