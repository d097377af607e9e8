// Package tui provides the live watch dashboard for a decision poll: attempt
// progress, outcome and retainer quote, and the conflict alert modal with
// dismissal. Built on BubbleTea; the workflow core stays UI-agnostic and is
// connected through a Bridge.
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// Run builds and runs the watch dashboard for one application, blocking
// until the user quits. The bridge is started on its own goroutine and
// stopped when the program exits.
func Run(ctx context.Context, b *Bridge, maxAttempts int, opts ...tea.ProgramOption) error {
	model := NewWatchModel(b.AppID, maxAttempts)
	model.Attempts = b.Poller.Attempts
	model.RequestDismiss = b.RequestDismiss

	allOpts := []tea.ProgramOption{tea.WithAltScreen()}
	allOpts = append(allOpts, opts...)
	p := tea.NewProgram(model, allOpts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.Run(ctx, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// WithOutput returns a program option that directs TUI output to the given
// writer. Useful for testing or redirecting output.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}
