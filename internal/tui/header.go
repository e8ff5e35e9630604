package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top header bar.
//
// Layout:
//   left:   "vitals" plus the active scenario name when one is set
//   center: colored "● STATUS" indicator (or "waiting for samples..." before
//           the first poll lands)
//   right:  "Last: HH:MM:SS  Poll: Ns"
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	left := "vitals"
	if app.scenario != "" {
		left += "  " + StyleDim.Render("["+app.scenario+"]")
	}

	var center, right string
	if !app.hasState {
		center = StyleDim.Render("waiting for samples...")
	} else {
		status := strings.ToUpper(app.state.Status.String())
		center = StatusStyle(app.state.Status).Render("● " + status)

		lastStr := app.lastUpdated.Format("15:04:05")
		right = StyleDim.Render(fmt.Sprintf("Last: %s  Poll: %s", lastStr, formatInterval(app.pollInterval)))
	}

	// Build row: left + padding + center + padding + right, filling innerWidth.
	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	spacing := innerWidth - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).Render(row)
}

// formatInterval formats a poll interval as a compact string, e.g. "1s" or "2m".
func formatInterval(d time.Duration) string {
	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d >= time.Second {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
