package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#dc3545")
	ColorGreen   = lipgloss.Color("#28a745")
	ColorYellow  = lipgloss.Color("#ffc107")
	ColorOrange  = lipgloss.Color("#fd7e14")
	ColorBlue    = lipgloss.Color("#007bff")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorBlack   = lipgloss.Color("#1a1a1a")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	InfoTextStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	SelectionStyle = lipgloss.NewStyle().
			Reverse(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	LiveBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ScrollBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	HeldBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorOrange).
			Bold(true)

	StatCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimGray).
			Padding(0, 1)

	ConfirmStyle = lipgloss.NewStyle().
			Foreground(ColorBlack).
			Background(ColorYellow).
			Bold(true).
			Padding(0, 1)
)

// StatusBadge renders a job status in its phase color.
func StatusBadge(label, color string) string {
	return lipgloss.NewStyle().
		Foreground(ColorBlack).
		Background(lipgloss.Color(color)).
		Padding(0, 1).
		Render(label)
}

// LevelStyle colors a log level tag.
func LevelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR", "CRITICAL", "error", "critical":
		return lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	case "WARNING", "WARN", "warning", "warn":
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case "DEBUG", "debug":
		return lipgloss.NewStyle().Foreground(ColorGray)
	default:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	}
}
