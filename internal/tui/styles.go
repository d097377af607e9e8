package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan — primary accent
	colorSuccess = lipgloss.Color("#00E676") // Green — decision found
	colorDanger  = lipgloss.Color("#FF5252") // Red — failures/conflicts
	colorAccent  = lipgloss.Color("#FFD700") // Gold — pending/attention
	colorMuted   = lipgloss.Color("#636363") // Gray — de-emphasized
	colorWhite   = lipgloss.Color("#EEEEEE") // Off-white — primary text
	colorSurface = lipgloss.Color("#1E1E2E") // Dark surface — header bg
)

var (
	styleHeader = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleValue = lipgloss.NewStyle().
			Foreground(colorWhite)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	stylePending = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleDanger = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleModal = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDanger).
			Padding(1, 2)
)
