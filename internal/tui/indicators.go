package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/vitals-go/internal/format"
	"github.com/dm/vitals-go/internal/model"
)

// renderIndicators renders the three health indicator cards (Memory,
// Performance, Errors), each with its status, score and a score sparkline
// over the recent journal.
// Wide terminals (>= 80 cols): 1x3 horizontal row.
// Narrow terminals (< 80 cols): stacked vertically.
func renderIndicators(app *App) string {
	if !app.hasState {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	label := StylePanelTitle.Render("Indicators")

	cards := []string{
		renderIndicatorCard("Memory", app.state.Indicators.Memory,
			scoreSeries(app.history, func(in model.Indicators) float64 { return in.Memory.Score }), width/3),
		renderIndicatorCard("Performance", app.state.Indicators.Performance,
			scoreSeries(app.history, func(in model.Indicators) float64 { return in.Performance.Score }), width/3),
		renderIndicatorCard("Errors", app.state.Indicators.Errors,
			scoreSeries(app.history, func(in model.Indicators) float64 { return in.Errors.Score }), width/3),
	}

	if width < 80 {
		return lipgloss.JoinVertical(lipgloss.Left, label, cards[0], cards[1], cards[2])
	}
	return lipgloss.JoinVertical(lipgloss.Left, label,
		lipgloss.JoinHorizontal(lipgloss.Top, cards...))
}

// renderIndicatorCard renders one indicator card.
//
// Layout (3 rows inside a rounded border):
//
//	╭──────────────────╮
//	│ Memory           │
//	│ ● HEALTHY  0.87  │
//	│ ▅▅▆▆▇▇███        │
//	╰──────────────────╯
func renderIndicatorCard(title string, ind model.HealthIndicator, sparkValues []float64, cardWidth int) string {
	const minCardWidth = 12
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	// Inner width = card width minus border (2) and padding (2).
	innerWidth := cardWidth - 6
	if innerWidth < 1 {
		innerWidth = 1
	}

	titleLine := StyleDim.Render(title)
	statusLine := StatusStyle(ind.Status).Render("● "+strings.ToUpper(ind.Status.String())) +
		"  " + format.FormatScore(ind.Score)
	sparkLine := RenderScoreSparkline(sparkValues, innerWidth, StatusColor(ind.Status))

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Padding(0, 1).
		Width(cardWidth - 4)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleLine,
		statusLine,
		sparkLine,
	))
}

// scoreSeries projects one indicator score out of the journaled states,
// oldest first.
func scoreSeries(history []model.HealthState, pick func(model.Indicators) float64) []float64 {
	out := make([]float64, 0, len(history))
	for _, s := range history {
		out = append(out, pick(s.Indicators))
	}
	return out
}
