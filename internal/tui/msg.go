package tui

import (
	"github.com/retainly/intake/internal/decision"
	"github.com/retainly/intake/internal/retainer"
)

// MsgAttempts refreshes the poll attempt counter.
type MsgAttempts struct {
	Attempts int
}

// MsgOutcome is sent once when the decision poller completes.
type MsgOutcome struct {
	Result decision.Result
	Quote  retainer.Quote
}

// MsgConflict is sent when the conflict tracker opens the alert.
type MsgConflict struct {
	Message string
	Rearmed bool
}

// MsgConflictCleared is sent after a dismissal is processed.
type MsgConflictCleared struct{}

// MsgError carries a non-fatal error for the message line.
type MsgError struct {
	Msg string
}
