package engine

import "github.com/dm/vitals-go/internal/model"

// Settings bundles per tier. Healthy is the richest; each rung trades
// visual and model richness for headroom. Audio buffers grow downward on
// the ladder: underrun safety beats latency once the pipeline struggles.
var (
	settingsFull = model.QualitySettings{
		Tier:                    model.TierFull,
		VisualizationComplexity: 1.0,
		ParticleCount:           2000,
		AudioBufferSize:         1024,
		LLMContextWindow:        4096,
		CacheAggressiveness:     0.25,
	}
	settingsConservative = model.QualitySettings{
		Tier:                    model.TierConservative,
		VisualizationComplexity: 0.75,
		ParticleCount:           1200,
		AudioBufferSize:         2048,
		LLMContextWindow:        3072,
		CacheAggressiveness:     0.5,
	}
	settingsMinimal = model.QualitySettings{
		Tier:                    model.TierMinimal,
		VisualizationComplexity: 0.2,
		ParticleCount:           150,
		AudioBufferSize:         8192,
		LLMContextWindow:        1024,
		CacheAggressiveness:     1.0,
	}
)

// AdaptiveQualitySettings maps the current status and trend direction to a
// settings bundle for downstream consumers.
//
// Tiering:
//   - Healthy: full, or the conservative sub-tier when memory or
//     performance is already trending down.
//   - Degraded: targeted reductions keyed to whichever indicators breached,
//     or minimal outright when both trends confirm the degradation.
//   - Unhealthy: minimal.
func (m *Monitor) AdaptiveQualitySettings() model.QualitySettings {
	m.mu.Lock()
	defer m.mu.Unlock()

	memTr := m.states.Trend("indicators.memory.score", m.policy.TrendShortWindow, m.policy.TrendLongWindow)
	perfTr := m.states.Trend("indicators.performance.score", m.policy.TrendShortWindow, m.policy.TrendLongWindow)
	memFalling := memTr.Direction == model.TrendDecreasing && memTr.Magnitude > m.policy.UpgradeTrendPct
	perfFalling := perfTr.Direction == model.TrendDecreasing && perfTr.Magnitude > m.policy.UpgradeTrendPct

	switch m.current.Status {
	case model.StatusHealthy:
		if memFalling || perfFalling {
			return settingsConservative
		}
		return settingsFull

	case model.StatusDegraded:
		// Trend-confirmed severe degradation skips straight to the floor.
		severe := memFalling && perfFalling &&
			memTr.Magnitude > m.policy.DowngradeTrendPct && perfTr.Magnitude > m.policy.DowngradeTrendPct
		if severe {
			return settingsMinimal
		}
		return m.degradedSettings()

	default:
		return settingsMinimal
	}
}

// degradedSettings starts from the conservative bundle and applies targeted
// reductions keyed to which indicator breached. Callers hold m.mu.
func (m *Monitor) degradedSettings() model.QualitySettings {
	s := settingsConservative
	s.Tier = model.TierReduced

	in := m.current.Indicators
	if in.Performance.Status != model.StatusHealthy {
		s.VisualizationComplexity = 0.5
		s.ParticleCount = 600
		s.AudioBufferSize = 4096
	}
	if in.Memory.Status != model.StatusHealthy {
		s.LLMContextWindow = 2048
		s.ParticleCount = min(s.ParticleCount, 600)
	}
	if in.Errors.Status != model.StatusHealthy {
		s.CacheAggressiveness = 0.75
		s.AudioBufferSize = 4096
	}
	return s
}
