// Package ui is the Bubble Tea dashboard for the venue arbitrage scanner.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#7C3AED")
	colorGain   = lipgloss.Color("#10B981")
	colorLoss   = lipgloss.Color("#EF4444")
	colorWarn   = lipgloss.Color("#F59E0B")
	colorDim    = lipgloss.Color("#6B7280")
	colorEdge   = lipgloss.Color("#374151")
	colorTrade  = lipgloss.Color("#60A5FA")
)

var (
	// panelStyle frames the venue and activity columns.
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorEdge).
			Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorAccent).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)

	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	gainStyle  = lipgloss.NewStyle().Foreground(colorGain)
	tradeStyle = lipgloss.NewStyle().Foreground(colorTrade)
)
