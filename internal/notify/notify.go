// Package notify delivers best-effort, user-visible toast notifications.
// A toast that fails to display must never affect workflow state, so the
// Toaster contract has no error return.
package notify

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

// Severity classifies a toast for display purposes.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Toaster presents a dismissable notification to the user. Implementations
// must be best-effort: no error return, no side effects on failure.
type Toaster interface {
	Toast(title, message string, severity Severity)
}

// Terminal writes styled toasts to a terminal stream.
type Terminal struct {
	out io.Writer
}

// NewTerminal creates a Terminal toaster writing to stderr.
func NewTerminal() *Terminal {
	return &Terminal{out: os.Stderr}
}

// NewTerminalWriter creates a Terminal toaster writing to w. Used in tests.
func NewTerminalWriter(w io.Writer) *Terminal {
	return &Terminal{out: w}
}

// Toast prints a single styled line. Write errors are deliberately ignored.
func (t *Terminal) Toast(title, message string, severity Severity) {
	color := cyan
	mark := "•"
	switch severity {
	case SeveritySuccess:
		color, mark = green, "✓"
	case SeverityWarning:
		color, mark = yellow, "!"
	case SeverityError:
		color, mark = red, "✗"
	}
	fmt.Fprintf(t.out, color+bold+"%s %s"+reset+" %s\n", mark, title, message)
}

// Discard is a Toaster that drops every toast. Useful in tests and as a
// safe default when no presentation surface exists.
type Discard struct{}

// Toast does nothing.
func (Discard) Toast(string, string, Severity) {}
