package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/vitals-go/internal/format"
	"github.com/dm/vitals-go/internal/model"
)

// renderMetricsRow renders 4 metric cards (Latency, Throughput, Error Rate,
// System Load) with a "Pipeline Metrics" section label.
// Wide terminals (>= 80 cols): 1x4 horizontal row.
// Narrow terminals (< 80 cols): 2x2 grid.
func renderMetricsRow(app *App) string {
	if !app.hasState {
		return ""
	}

	label := StylePanelTitle.Render("Pipeline Metrics")

	cards := []string{
		renderMetricCard("Latency", format.FormatLatency(app.sample.ResponseTime), trendArrow(app.perfTrend), app.width/4, colorYellow, StyleDim),
		renderMetricCard("Throughput", format.FormatTokenRate(app.sample.Throughput), trendArrow(app.memTrend), app.width/4, colorCyan, StyleDim),
		renderMetricCard("Error Rate", format.FormatPercent(app.sample.ErrorRate), "", app.width/4, colorRed, StyleDim),
		renderMetricCard("System Load", format.FormatPercent(app.load), "", app.width/4, colorBlue, StyleDim),
	}

	if app.width > 0 && app.width < 80 {
		cardWidth := (app.width + 4) / 2
		if cardWidth < 12 {
			return ""
		}
		top := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1])
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3])
		return lipgloss.JoinVertical(lipgloss.Left, label, top, bottom)
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	return lipgloss.JoinVertical(lipgloss.Left, label, row)
}

// renderMetricCard renders a single metric card with title and value, plus
// an optional trend annotation after the value.
func renderMetricCard(title, value, annotation string, cardWidth int, color lipgloss.Color, titleStyle lipgloss.Style) string {
	const minCardWidth = 12
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)

	valueLine := valueStyle.Render(value)
	if annotation != "" {
		valueLine += " " + StyleDim.Render(annotation)
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Padding(0, 1).
		Width(cardWidth - 4)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		valueLine,
	))
}

// trendArrow maps a trend result to a compact arrow annotation. Trends here
// are over indicator scores, where up is improvement.
func trendArrow(tr model.TrendResult) string {
	switch tr.Direction {
	case model.TrendIncreasing:
		return "↑"
	case model.TrendDecreasing:
		return "↓"
	default:
		return ""
	}
}
