package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/vitals-go/internal/model"
)

// Color constants — vitals dashboard palette.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorPurple = lipgloss.Color("#8b5cf6")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
)

// Status styles — bold foreground, used for the health status indicator.
var (
	StyleStatusHealthy   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleStatusDegraded  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	StyleStatusUnhealthy = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// StyleHeader — full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StylePanelTitle — section labels above card rows.
var StylePanelTitle = lipgloss.NewStyle().Foreground(colorGray)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
)

// Named color styles for panel values.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	StyleBlue   = lipgloss.NewStyle().Foreground(colorBlue)
	StyleCyan   = lipgloss.NewStyle().Foreground(colorCyan)
	StylePurple = lipgloss.NewStyle().Foreground(colorPurple)
	StyleRed    = lipgloss.NewStyle().Foreground(colorRed)
)

// StatusStyle returns the bold foreground style for a health status.
func StatusStyle(status model.HealthStatus) lipgloss.Style {
	switch status {
	case model.StatusHealthy:
		return StyleStatusHealthy
	case model.StatusDegraded:
		return StyleStatusDegraded
	default:
		return StyleStatusUnhealthy
	}
}

// StatusColor returns the palette color for a health status, for sparklines
// and accents.
func StatusColor(status model.HealthStatus) lipgloss.Color {
	switch status {
	case model.StatusHealthy:
		return colorGreen
	case model.StatusDegraded:
		return colorYellow
	default:
		return colorRed
	}
}
