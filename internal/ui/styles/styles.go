// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#2D2D2D", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"}

	// Borders
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#D4A017", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#54A0FF"}

	// Mode tabs
	TabActiveBgColor   = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	TabActiveFgColor   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	TabInactiveFgColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#8C8C8C"}

	// Pins
	PinHighColor   = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"}
	PinLowColor    = lipgloss.AdaptiveColor{Light: "#9CA0B0", Dark: "#6C7086"}
	PinOutputColor = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"}
	PinInputColor  = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"}

	// Diff
	DiffAddColor    = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	DiffDeleteColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	TabActiveStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(TabActiveFgColor).
			Background(TabActiveBgColor)

	TabInactiveStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(TabInactiveFgColor)

	// Instance chips reuse the tab look in a lighter weight.
	ChipActiveStyle   = TabActiveStyle.Bold(false)
	ChipInactiveStyle = TabInactiveStyle.Underline(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	HintStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)

	PinHighStyle = lipgloss.NewStyle().Foreground(PinHighColor).Bold(true)
	PinLowStyle  = lipgloss.NewStyle().Foreground(PinLowColor)

	DiffAddStyle    = lipgloss.NewStyle().Foreground(DiffAddColor)
	DiffDeleteStyle = lipgloss.NewStyle().Foreground(DiffDeleteColor)
	DiffEqualStyle  = lipgloss.NewStyle().Foreground(TextMutedColor)
)

// LevelColor maps a run log level name (info, success, warning, error) to
// its color.
func LevelColor(level string) lipgloss.TerminalColor {
	switch level {
	case "success":
		return StatusSuccessColor
	case "warning":
		return StatusWarningColor
	case "error":
		return StatusErrorColor
	default:
		return StatusInfoColor
	}
}
