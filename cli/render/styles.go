package render

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	headerColor  = lipgloss.Color("#3B82F6") // Blue
	successColor = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for table output.
var (
	// HeaderStyle for column headers and field labels.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(headerColor)

	// SuccessStyle for completed counters.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// ErrorStyle for rejection and failure counters.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// MutedStyle for empty values and placeholders.
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)
