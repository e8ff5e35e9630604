package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/vitals-go/internal/format"
	"github.com/dm/vitals-go/internal/model"
)

// renderSettingsPanel renders the adaptive quality settings currently in
// effect: the tier plus the individual knobs downstream consumers read.
func renderSettingsPanel(app *App) string {
	if !app.hasState {
		return ""
	}

	s := app.settings

	label := StylePanelTitle.Render("Adaptive Settings")
	tierLine := tierStyle(s.Tier).Render("tier: " + strings.ToUpper(s.Tier.String()))

	knobs := []string{
		fmt.Sprintf("viz %s", format.FormatPercent(s.VisualizationComplexity)),
		fmt.Sprintf("particles %d", s.ParticleCount),
		fmt.Sprintf("audio buf %d", s.AudioBufferSize),
		fmt.Sprintf("llm ctx %d", s.LLMContextWindow),
		fmt.Sprintf("cache %s", format.FormatPercent(s.CacheAggressiveness)),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		label,
		tierLine,
		StyleDim.Render(strings.Join(knobs, "  ")),
	)
}

// tierStyle maps a quality tier to a color: full is green, the reduced
// tiers shade toward red.
func tierStyle(tier model.QualityTier) lipgloss.Style {
	switch tier {
	case model.TierFull:
		return StyleGreen
	case model.TierConservative:
		return StyleCyan
	case model.TierReduced:
		return StyleYellow
	default:
		return StyleRed
	}
}
