package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks is the 8-level block character set for sparklines.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderScoreSparkline converts a slice of [0,1] scores into a block
// sparkline string of exactly `width` characters, colored with the given
// lipgloss color. Scores render against the fixed [0,1] scale rather than
// the window maximum, so the baseline does not re-normalize as history
// scrolls and a flat 0.5 always draws at half height.
//
// Rules:
//   - Empty values → return width spaces
//   - Values longer than width → use last width values
//   - Fewer values than width → left-pad with spaces
func RenderScoreSparkline(values []float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}

	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}

	if len(values) > width {
		values = values[len(values)-width:]
	}

	style := lipgloss.NewStyle().Foreground(color)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(values)))

	for _, v := range values {
		idx := int(v * 7)
		if idx < 0 {
			idx = 0
		}
		if idx > 7 {
			idx = 7
		}
		sb.WriteRune(sparkBlocks[idx])
	}

	return style.Render(sb.String())
}
