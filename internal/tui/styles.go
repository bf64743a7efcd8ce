// Package tui provides the interactive session for ubuntu-fetcher.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// HasTrueColor indicates if terminal supports true color (24-bit)
var HasTrueColor = detectTrueColor()

func detectTrueColor() bool {
	colorTerm := os.Getenv("COLORTERM")
	return colorTerm == "truecolor" || colorTerm == "24bit"
}

// Theme colors - Ubuntu palette
var (
	ColorBrand = brandColor()

	ColorMuted  = lipgloss.Color("241") // Labels, static text
	ColorNormal = lipgloss.Color("252") // Paragraphs
	ColorBright = lipgloss.Color("255") // Dynamic values, emphasis

	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("220") // Yellow
	ColorDanger  = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("75")  // Cyan/blue
)

func brandColor() lipgloss.Color {
	if HasTrueColor {
		return lipgloss.Color("#E95420") // Ubuntu orange
	}
	return lipgloss.Color("202")
}

// Text styles
var (
	TextMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	TextNormal  = lipgloss.NewStyle().Foreground(ColorNormal)
	TextBright  = lipgloss.NewStyle().Foreground(ColorBright).Bold(true)
	TextSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	TextWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	TextDanger  = lipgloss.NewStyle().Foreground(ColorDanger)
	TextInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
)

// Layout styles
var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorBrand).
			Padding(1, 4).
			Align(lipgloss.Center)

	bannerTitleStyle = lipgloss.NewStyle().
				Foreground(ColorBrand).
				Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(ColorBright).
			MarginTop(1)

	resultStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderBottom(true).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)
)
