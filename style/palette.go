package style

import "github.com/charmbracelet/lipgloss"

// ANSI colors, so output follows the terminal theme.
var (
	Red      = lipgloss.Color("1")
	Green    = lipgloss.Color("2")
	Yellow   = lipgloss.Color("3")
	Blue     = lipgloss.Color("4")
	Purple   = lipgloss.Color("5")
	Cyan     = lipgloss.Color("6")
	Gray     = lipgloss.Color("8")
	HiRed    = lipgloss.Color("9")
	HiPurple = lipgloss.Color("13")
)

// Status colors used when reporting provider outcomes.
var (
	OK       = Green
	Degraded = Yellow
	Failed   = Red
)
