package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen  = lipgloss.Color("10")
	colorRed    = lipgloss.Color("9")
	colorYellow = lipgloss.Color("11")
	colorGray   = lipgloss.Color("8")

	stylePending = lipgloss.NewStyle().Foreground(colorGray)
	styleRunning = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleDone    = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailed  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

const (
	glyphPending = "○"
	glyphRunning = "●"
	glyphDone    = "✓"
	glyphFailed  = "✗"
)
