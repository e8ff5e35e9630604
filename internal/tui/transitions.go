package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/vitals-go/internal/format"
)

// maxTransitionRows bounds the transition log panel.
const maxTransitionRows = 5

// renderTransitionLog renders the most recent accepted transitions, newest
// first: "HEALTHY → DEGRADED   42s ago   <reason>".
func renderTransitionLog(app *App) string {
	if !app.hasState {
		return ""
	}

	label := StylePanelTitle.Render("Transitions")
	if len(app.transitions) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, label, StyleDim.Render("none yet"))
	}

	trs := app.transitions
	if len(trs) > maxTransitionRows {
		trs = trs[len(trs)-maxTransitionRows:]
	}

	rows := make([]string, 0, len(trs))
	for i := len(trs) - 1; i >= 0; i-- {
		tr := trs[i]
		row := StatusStyle(tr.From).Render(strings.ToUpper(tr.From.String())) +
			" → " +
			StatusStyle(tr.To).Render(strings.ToUpper(tr.To.String())) +
			"   " + StyleDim.Render(format.FormatAge(tr.Timestamp, app.lastUpdated)+" ago") +
			"   " + StyleDim.Render(tr.Reason)
		rows = append(rows, row)
	}

	return lipgloss.JoinVertical(lipgloss.Left, append([]string{label}, rows...)...)
}
