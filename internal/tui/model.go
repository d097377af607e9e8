package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/retainly/intake/internal/decision"
	"github.com/retainly/intake/internal/retainer"
)

// attemptPollEvery is how often the attempt counter refreshes.
const attemptPollEvery = 500 * time.Millisecond

// WatchModel is the BubbleTea model for the decision watch dashboard. It
// displays live poll progress for one application, surfaces the conflict
// alert as a modal, and shows the retainer quote once a decision lands.
type WatchModel struct {
	AppID       string
	MaxAttempts int

	// Attempts reads the live counted-tick counter. Wired by the bridge.
	Attempts func() int

	// RequestDismiss forwards a conflict dismissal to the bridge. Must not
	// block; the bridge coalesces repeats.
	RequestDismiss func()

	spinner  spinner.Model
	attempts int
	outcome  *decision.Result
	quote    retainer.Quote
	conflict string
	rearmed  bool
	errMsg   string
	width    int
	done     bool
}

// NewWatchModel creates the dashboard model for one application.
func NewWatchModel(appID string, maxAttempts int) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)
	return WatchModel{
		AppID:       appID,
		MaxAttempts: maxAttempts,
		spinner:     sp,
	}
}

type msgAttemptTick struct{}

func attemptTick() tea.Cmd {
	return tea.Tick(attemptPollEvery, func(time.Time) tea.Msg { return msgAttemptTick{} })
}

// Init starts the spinner and the attempt-counter refresh loop.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, attemptTick())
}

// Update handles key presses and bridge messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "d":
			if m.conflict != "" && m.RequestDismiss != nil {
				m.RequestDismiss()
			}
			return m, nil
		}
		return m, nil

	case msgAttemptTick:
		if m.Attempts != nil {
			m.attempts = m.Attempts()
		}
		if m.done {
			return m, nil
		}
		return m, attemptTick()

	case MsgAttempts:
		m.attempts = msg.Attempts
		return m, nil

	case MsgOutcome:
		m.outcome = &msg.Result
		m.quote = msg.Quote
		m.attempts = msg.Result.Attempts
		m.done = true
		return m, nil

	case MsgConflict:
		m.conflict = msg.Message
		m.rearmed = msg.Rearmed
		return m, nil

	case MsgConflictCleared:
		m.conflict = ""
		return m, nil

	case MsgError:
		m.errMsg = msg.Msg
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m WatchModel) View() string {
	header := styleHeader.Render(fmt.Sprintf(" intake watch — application %s ", m.AppID))

	var status string
	switch {
	case m.outcome == nil:
		status = fmt.Sprintf("%s %s %s",
			m.spinner.View(),
			styleLabel.Render("polling"),
			stylePending.Render(fmt.Sprintf("attempt %d/%d", m.attempts, m.MaxAttempts)))
	case m.outcome.Outcome == decision.OutcomeDecisionFound:
		status = fmt.Sprintf("%s %s  %s",
			styleSuccess.Render("✓ decision:"),
			styleValue.Render(m.outcome.Snapshot.Decision),
			styleMuted.Render(fmt.Sprintf("(%d attempts)", m.outcome.Attempts)))
	case m.outcome.Outcome == decision.OutcomeTimedOut:
		status = styleDanger.Render(fmt.Sprintf("✗ no decision after %d attempts — routed to manual review", m.outcome.Attempts))
	default:
		status = styleDanger.Render(fmt.Sprintf("✗ fetch failed: %v", m.outcome.Err))
	}

	lines := []string{header, "", status}

	if m.outcome != nil && m.outcome.Outcome == decision.OutcomeDecisionFound {
		lines = append(lines, "",
			fmt.Sprintf("%s %s", styleLabel.Render("standard retainer:"), styleValue.Render(fmt.Sprintf("$%.2f", m.quote.Standard))),
			fmt.Sprintf("%s %s", styleLabel.Render("reduced retainer: "), styleValue.Render(fmt.Sprintf("$%.2f", m.quote.Reduced))),
		)
	}

	if m.conflict != "" {
		title := "CONFLICT OF INTEREST"
		if m.rearmed {
			title += " (changed since dismissal)"
		}
		modal := styleModal.Render(
			styleDanger.Render(title) + "\n\n" +
				styleValue.Render(m.conflict) + "\n\n" +
				styleMuted.Render("press d to dismiss"))
		lines = append(lines, "", modal)
	}

	if m.errMsg != "" {
		lines = append(lines, "", styleDanger.Render(m.errMsg))
	}

	footer := styleMuted.Render("q quit")
	if m.done {
		footer = styleMuted.Render("q quit — polling finished")
	}
	lines = append(lines, "", footer)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
