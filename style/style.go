// Package style renders terminal output for the CLI with lipgloss.
package style

import "github.com/charmbracelet/lipgloss"

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer applying the foreground color c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

var (
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
	Faint = func(s string) string { return New().Faint(true).Render(s) }
)

// Tag renders s as a padded block with the given colors.
func Tag(fg, bg lipgloss.Color) func(string) string {
	return func(s string) string {
		return New().Foreground(fg).Background(bg).Padding(0, 1).Render(s)
	}
}

// Title is the banner used above command output.
var Title = Tag(lipgloss.Color("230"), lipgloss.Color("62"))
