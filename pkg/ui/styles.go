package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// UI color scheme
var (
	red    = lipgloss.AdaptiveColor{Light: "#FE5F86", Dark: "#FE5F86"}
	indigo = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	green  = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02BF87"}
	yellow = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	gray   = lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#BDBDBD"}
)

// UI styles
var (
	// TitleStyle renders run and per-service block headers.
	TitleStyle = lipgloss.NewStyle().
			Foreground(indigo).
			Bold(true).
			Padding(0, 1)

	// BannerStyle frames the fanout header block.
	BannerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(indigo).
			Padding(0, 1)

	// SuccessStyle and FailureStyle mark per-service outcomes.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	FailureStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	// WarningStyle marks non-fatal degradations such as extraction
	// warnings and poll timeouts.
	WarningStyle = lipgloss.NewStyle().
			Foreground(yellow)

	// LabelStyle and ValueStyle render the key/value lines inside a
	// per-service block.
	LabelStyle = lipgloss.NewStyle().
			Foreground(gray)

	ValueStyle = lipgloss.NewStyle()

	// TallyStyle frames the final run summary.
	TallyStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(gray).
			PaddingTop(1)
)
