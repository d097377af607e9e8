// Package audit provides a JSONL event stream for recording intake workflow
// activity. Every poll tick, decision, conflict transition, and consent
// capture is recorded as a structured JSON event, making a client's intake
// history auditable after the fact.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event kinds identify the type of audit event.
const (
	KindAccountCreated   = "account_created"
	KindConsentCaptured  = "consent_captured"
	KindCreditSubmitted  = "credit_submitted"
	KindPollTick         = "poll_tick"
	KindPollSkipped      = "poll_skipped"
	KindDecisionFound    = "decision_found"
	KindPollTimedOut     = "poll_timed_out"
	KindPollFetchFailed  = "poll_fetch_failed"
	KindConflictArmed    = "conflict_armed"
	KindConflictRearmed  = "conflict_rearmed"
	KindConflictShown    = "conflict_shown"
	KindConflictDismiss  = "conflict_dismissed"
	KindStepAdvanced     = "step_advanced"
	KindRequestIngested  = "request_ingested"
	KindRequestRejected  = "request_rejected"
)

// Event represents a single audit record. Each event carries a timestamp,
// a kind tag, and optional context identifiers (account, application) along
// with arbitrary structured data.
type Event struct {
	Timestamp     time.Time `json:"ts"`
	Kind          string    `json:"kind"`
	AccountID     string    `json:"account,omitempty"`
	ApplicationID string    `json:"application,omitempty"`
	Data          any       `json:"data,omitempty"`
}

// Emitter writes audit events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes a single event to the JSONL file. It is safe for concurrent
// use. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("audit: encode event: %w", err)
	}
	return nil
}

// Record is a convenience wrapper that emits an event and drops the error.
// Audit is best-effort; a full disk must not halt the workflow.
func (e *Emitter) Record(kind, accountID, applicationID string, data any) {
	_ = e.Emit(Event{
		Kind:          kind,
		AccountID:     accountID,
		ApplicationID: applicationID,
		Data:          data,
	})
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("audit: close: %w", err)
	}
	return nil
}
