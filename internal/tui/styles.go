package tui

import "github.com/charmbracelet/lipgloss"

// Oxocarbon-ish palette, matching the rest of our tooling.
var (
	colorMuted  = lipgloss.Color("#767676")
	colorBorder = lipgloss.Color("#393939")
	colorText   = lipgloss.Color("#f2f4f8")
	colorAccent = lipgloss.Color("#be95ff")
	colorActive = lipgloss.Color("#3ddbd9")
	colorGreen  = lipgloss.Color("#42be65")
	colorRed    = lipgloss.Color("#ff5252")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorAccent).
			Padding(0, 1).
			Bold(true)

	surfaceStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Foreground(colorMuted).
			Align(lipgloss.Center, lipgloss.Center)

	surfacePressingStyle = surfaceStyle.
				BorderForeground(colorAccent).
				Foreground(colorText)

	surfaceDraggingStyle = surfaceStyle.
				BorderForeground(colorActive).
				Foreground(colorActive)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	flashStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)
