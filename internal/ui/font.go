package ui

import "github.com/charmbracelet/lipgloss"

// FontClass is how one step of the log font scale renders in a terminal,
// where glyph size is fixed: smaller steps drop detail and dim, larger steps
// add weight and spacing.
type FontClass struct {
	Message  lipgloss.Style
	ShowTime bool
	Spacing  int // blank lines after each entry
}

var fontClasses = map[string]FontClass{
	"xs":  {Message: lipgloss.NewStyle().Faint(true)},
	"sm":  {Message: lipgloss.NewStyle().Faint(true), ShowTime: true},
	"md":  {Message: lipgloss.NewStyle(), ShowTime: true},
	"lg":  {Message: lipgloss.NewStyle().Bold(true), ShowTime: true},
	"xl":  {Message: lipgloss.NewStyle().Bold(true), ShowTime: true, Spacing: 1},
	"xxl": {Message: lipgloss.NewStyle().Bold(true).Underline(true), ShowTime: true, Spacing: 1},
}

// Font returns the class for a font size name, md for unknown names.
func Font(name string) FontClass {
	if c, ok := fontClasses[name]; ok {
		return c
	}
	return fontClasses["md"]
}
