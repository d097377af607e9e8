// Package record provides the shared record store for intake workflow state.
//
// Accounts and intake applications live in an externally-owned store; the
// workflow core reads snapshots of named fields and writes field values back
// without ever assuming exclusive access. The store is deliberately narrow:
// fetch, update, and a best-effort change hint. The local backend uses SQLite
// in WAL mode so external readers (dashboards, a second CLI invocation) see
// writes without blocking the owner.
package record

import (
	"context"
	"errors"
	"time"
)

// Field names understood by Fetch and Update. Callers request a subset per
// fetch; unknown names are ignored rather than rejected so that readers and
// writers can evolve independently of the schema.
const (
	FieldDecision          = "decision"
	FieldQuotedAmount      = "quoted_amount"
	FieldReducedAmount     = "reduced_amount"
	FieldAccountName       = "account_name"
	FieldConflictAlert     = "conflict_alert"
	FieldConflictDismissed = "conflict_dismissed"
	FieldConflictMessage   = "conflict_message"
	FieldConflictScore     = "conflict_score"
	FieldConflictSignature = "conflict_signature"
	FieldConsentAt         = "consent_at"
	FieldSubmittedAt       = "submitted_at"
	FieldStep              = "step"
)

// DecisionFields is the field set the decision poller reads on every tick.
var DecisionFields = []string{
	FieldDecision, FieldQuotedAmount, FieldReducedAmount, FieldAccountName,
}

// ConflictFields is the field set the conflict tracker evaluates on refresh.
var ConflictFields = []string{
	FieldConflictAlert, FieldConflictDismissed, FieldConflictMessage,
	FieldConflictScore, FieldConflictSignature,
}

// ErrNotFound is returned by Fetch when no application exists for the id.
var ErrNotFound = errors.New("record not found")

// Snapshot holds the current values of an application's fields at fetch time.
// Optional numeric and timestamp fields are pointers; absent string fields are
// empty strings. A Snapshot is immutable once returned.
type Snapshot struct {
	ID                string
	Decision          string
	QuotedAmount      *float64
	ReducedAmount     *float64
	AccountName       string
	ConflictAlert     bool
	ConflictDismissed bool
	ConflictMessage   string
	ConflictScore     string
	ConflictSignature string
	ConsentAt         *time.Time
	SubmittedAt       *time.Time
	Step              string
}

// Values maps field names to new values for an Update call. Supported value
// types are string, bool, float64, *float64, time.Time, and nil (clears).
type Values map[string]any

// Store is the abstract record collaborator consumed by the workflow core.
// Implementations are externally owned; the core tolerates concurrent
// modification by other writers (that is the reason polling exists at all).
type Store interface {
	// Fetch reads the current values of the requested fields for an
	// application. Returns ErrNotFound if the application does not exist.
	Fetch(ctx context.Context, id string, fields []string) (Snapshot, error)

	// Update writes field values for an application. Callers may retry on
	// failure; the store itself does not.
	Update(ctx context.Context, id string, values Values) error

	// NotifyChanged is a best-effort cache-invalidation hint to other
	// readers of the same record. It never blocks and never fails.
	NotifyChanged(id string)

	// Close releases store resources.
	Close() error
}
