package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: a single lime accent on grays.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Keywords
	ColorWhite    = "255" // Headers
	ColorGray     = "245" // Labels, file paths
	ColorDarkGray = "238" // Borders
	ColorRed      = "196" // Errors, mismatches
	ColorYellow   = "220" // Warnings, unreadable files
)

// Styles holds the report styles.
type Styles struct {
	Header   lipgloss.Style
	Strategy lipgloss.Style
	Keyword  lipgloss.Style
	File     lipgloss.Style
	Label    lipgloss.Style
	Dim      lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Panel    lipgloss.Style
}

// DefaultStyles returns colored styles for terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Strategy: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Keyword:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		File:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components; Panel keeps its border.
func NoColorStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle(),
		Strategy: lipgloss.NewStyle(),
		Keyword:  lipgloss.NewStyle(),
		File:     lipgloss.NewStyle(),
		Label:    lipgloss.NewStyle(),
		Dim:      lipgloss.NewStyle(),
		Success:  lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// GetStyles returns the styles for a color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
