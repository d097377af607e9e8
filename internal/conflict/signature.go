// Package conflict decides when a conflict-of-interest alert must be shown,
// re-shown, or left dismissed for an intake application.
//
// Dismissal is sticky only while the underlying conflict score is unchanged.
// A signature derived from the score is stored alongside the dismissed flag;
// when a later refresh computes a different signature, the dismissal no
// longer applies and the alert re-arms. A session-local signature cache
// covers the window where the server-side signature write has not landed yet
// (persistence is best-effort and may fail on disconnected edits).
package conflict

import (
	"math"
	"strconv"
	"strings"
)

// BuildSignature derives a stable signature from a conflict score. An absent
// or whitespace-only score yields the empty signature. A numeric score is
// normalized to its canonical decimal string, so equivalent encodings ("5",
// "5.0", "05") produce the identical signature: drift detection compares
// numbers, not spellings. A non-numeric score falls back to its trimmed
// string form.
func BuildSignature(score string) string {
	trimmed := strings.TrimSpace(score)
	if trimmed == "" {
		return ""
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return trimmed
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NormalizeServerSignature extracts the significant segment of a server-stored
// signature. Legacy writers stored composite values using "|" as a separator;
// only the last segment carries the current signature.
func NormalizeServerSignature(raw string) string {
	if i := strings.LastIndex(raw, "|"); i >= 0 {
		raw = raw[i+1:]
	}
	return strings.TrimSpace(raw)
}

// SessionCache holds the last-dismissed signature per application for the
// lifetime of the hosting process. It is deliberately not durable: an offline
// or failed server write leaves the session value as the only witness of the
// dismissal, and losing it on restart merely re-shows the alert once.
//
// Not safe for concurrent use; all tracker state is single-writer.
type SessionCache struct {
	sigs map[string]string
}

// NewSessionCache creates an empty session cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{sigs: make(map[string]string)}
}

// Get returns the cached signature for an application id and whether one exists.
func (c *SessionCache) Get(id string) (string, bool) {
	s, ok := c.sigs[id]
	return s, ok
}

// Set stores the signature for an application id.
func (c *SessionCache) Set(id, sig string) {
	c.sigs[id] = sig
}
