package model

// QualityTier names the rung of the degradation ladder a settings bundle
// belongs to. Full is the richest tier; Minimal is the floor forced by
// Unhealthy state or trend-confirmed severe degradation.
type QualityTier int

const (
	TierFull QualityTier = iota
	TierConservative
	TierReduced
	TierMinimal
)

// String returns the lowercase tier name.
func (t QualityTier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierConservative:
		return "conservative"
	case TierReduced:
		return "reduced"
	default:
		return "minimal"
	}
}

// QualitySettings is the adaptive settings bundle handed to downstream
// consumers (renderer, audio engine, LLM pipeline). Consumers read it; they
// never influence monitor internals.
type QualitySettings struct {
	Tier QualityTier

	// Visualization
	VisualizationComplexity float64 // 0..1 render richness scalar
	ParticleCount           int

	// Audio: larger buffers trade latency for underrun safety.
	AudioBufferSize int // frames

	// LLM
	LLMContextWindow    int     // tokens
	CacheAggressiveness float64 // 0..1, fraction of lookups served from cache
}
