package conflict

import (
	"context"
	"fmt"

	"github.com/retainly/intake/internal/audit"
	"github.com/retainly/intake/internal/notify"
	"github.com/retainly/intake/internal/record"
)

// Evaluation reports what one refresh cycle decided.
type Evaluation struct {
	// Shown is true when this evaluation newly opened the alert. An
	// evaluation that would show while the alert is already open is
	// suppressed and reports Shown=false.
	Shown bool

	// Rearmed is true when a previously dismissed alert was re-armed
	// because its signature drifted since dismissal.
	Rearmed bool

	// Message is the alert text when Shown.
	Message string
}

// Tracker evaluates the conflict alert for one application on every remote
// data refresh. All state is single-writer (the owning workflow goroutine);
// no locking is needed.
type Tracker struct {
	// Toaster surfaces persistence failures. Defaults to notify.Discard.
	Toaster notify.Toaster

	// Audit, when set, records alert transitions. A nil emitter is a
	// valid no-op.
	Audit *audit.Emitter

	store record.Store
	cache *SessionCache
	id    string

	modalOpen bool
	refreshed bool
	current   string
}

// NewTracker creates a tracker for one application. The session cache is
// injected so its scope is owned by the calling workflow, not hidden in
// package state.
func NewTracker(store record.Store, cache *SessionCache, id string) *Tracker {
	return &Tracker{
		Toaster: notify.Discard{},
		store:   store,
		cache:   cache,
		id:      id,
	}
}

// ModalOpen reports whether the alert is currently presented.
func (t *Tracker) ModalOpen() bool {
	return t.modalOpen
}

// Evaluate runs the alert decision algorithm against a fresh snapshot of the
// application's conflict fields.
//
// When the alert is on and dismissed, the dismissal holds only while the
// current signature matches the server-stored one (or, if the server has
// none, the session-cached one). A mismatch re-arms: the dismissed flag is
// cleared, the current signature is persisted as the new server signature,
// and the alert shows again. When the alert is on and not dismissed, it
// shows unconditionally; the first such evaluation also emits one remote
// change hint per tracker lifetime so other readers refresh. When the alert
// is off, nothing happens.
func (t *Tracker) Evaluate(ctx context.Context, snap record.Snapshot) Evaluation {
	if !snap.ConflictAlert {
		return Evaluation{}
	}

	t.current = BuildSignature(snap.ConflictScore)
	serverSig := NormalizeServerSignature(snap.ConflictSignature)

	if snap.ConflictDismissed {
		if !t.signatureDrifted(serverSig) {
			return Evaluation{}
		}
		t.rearm(ctx)
		shown := t.show(snap.ConflictMessage)
		return Evaluation{Shown: shown, Rearmed: true, Message: snap.ConflictMessage}
	}

	if !t.refreshed {
		t.refreshed = true
		t.store.NotifyChanged(t.id)
	}
	shown := t.show(snap.ConflictMessage)
	return Evaluation{Shown: shown, Message: snap.ConflictMessage}
}

// signatureDrifted reports whether the score changed since dismissal. The
// server signature is authoritative when present; the session cache covers
// dismissals whose server write never landed.
func (t *Tracker) signatureDrifted(serverSig string) bool {
	if serverSig != "" {
		return serverSig != t.current
	}
	if sessionSig, ok := t.cache.Get(t.id); ok {
		return sessionSig != t.current
	}
	return false
}

// rearm clears the dismissed flag and persists the current signature as the
// new server signature. Persistence failure does not block the re-arm: the
// session cache records the signature locally and a later evaluation cycle
// retries implicitly because the mismatch recurs.
func (t *Tracker) rearm(ctx context.Context) {
	err := t.store.Update(ctx, t.id, record.Values{
		record.FieldConflictDismissed: false,
		record.FieldConflictSignature: t.current,
	})
	if err != nil {
		t.Toaster.Toast("Conflict alert", fmt.Sprintf("could not persist re-arm: %v", err), notify.SeverityWarning)
	}
	t.cache.Set(t.id, t.current)
	t.Audit.Record(audit.KindConflictRearmed, "", t.id, map[string]any{"signature": t.current})
}

// show opens the alert unless it is already open. At most one alert is
// presented per application at a time; rapid successive refreshes that would
// each show are collapsed into the one open presentation.
func (t *Tracker) show(message string) bool {
	if t.modalOpen {
		return false
	}
	t.modalOpen = true
	t.Audit.Record(audit.KindConflictShown, "", t.id, map[string]any{"message": message})
	return true
}

// Dismiss closes the alert and records the dismissal. The dismissed flag and
// current signature are written to the store; the local presentation closes
// and the session cache updates regardless of write success, so a flaky
// backend never traps the user in a modal they already dismissed.
func (t *Tracker) Dismiss(ctx context.Context) {
	err := t.store.Update(ctx, t.id, record.Values{
		record.FieldConflictDismissed: true,
		record.FieldConflictSignature: t.current,
	})
	if err != nil {
		t.Toaster.Toast("Conflict alert", fmt.Sprintf("dismissal saved locally; server write failed: %v", err), notify.SeverityWarning)
	}
	t.cache.Set(t.id, t.current)
	t.modalOpen = false
	t.Audit.Record(audit.KindConflictDismiss, "", t.id, map[string]any{"signature": t.current})
}
