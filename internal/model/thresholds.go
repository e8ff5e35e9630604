package model

// Threshold category names present in every base config.
const (
	CategoryMemory      = "memory"
	CategoryPerformance = "performance"
	CategoryError       = "error"
)

// Metric names used inside threshold categories.
const (
	MetricScore      = "score"
	MetricLatency    = "latency"
	MetricThroughput = "throughput"
	MetricErrorRate  = "errorRate"
)

// ThresholdValue is a warning/critical/recovery triple for one metric.
// Convention: warning < critical for higher-is-worse metrics (latency,
// errorRate); warning > critical for higher-is-better metrics (throughput,
// score). Polarity is inferred from that ordering, never stored.
type ThresholdValue struct {
	Warning  float64
	Critical float64
	Recovery float64
}

// HigherIsWorse reports the metric polarity implied by the triple's
// warning/critical ordering.
func (v ThresholdValue) HigherIsWorse() bool { return v.Warning <= v.Critical }

// ThresholdCategory maps metric name to its threshold triple.
type ThresholdCategory map[string]ThresholdValue

// ThresholdConfig maps category name to its metrics.
type ThresholdConfig map[string]ThresholdCategory

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate the live config.
func (c ThresholdConfig) Clone() ThresholdConfig {
	if c == nil {
		return nil
	}
	out := make(ThresholdConfig, len(c))
	for name, cat := range c {
		cc := make(ThresholdCategory, len(cat))
		for metric, v := range cat {
			cc[metric] = v
		}
		out[name] = cc
	}
	return out
}

// ThresholdContext selects and scales thresholds: an exact-match profile key
// (Category, Operation) plus a SystemLoad in [0,1] used as a scaling input.
// SystemLoad 0 scales by exactly 1, so "no load" needs no presence flag.
type ThresholdContext struct {
	Category   string
	Operation  string
	SystemLoad float64
}

// DefaultThresholds returns the baseline config for the audio/LLM pipeline.
// Score triples are higher-is-better in [0,1]; latency is ms, throughput
// tokens/sec, errorRate a fraction.
func DefaultThresholds() ThresholdConfig {
	score := ThresholdValue{Warning: 0.7, Critical: 0.4, Recovery: 0.8}
	return ThresholdConfig{
		CategoryMemory: {
			MetricScore: score,
		},
		CategoryPerformance: {
			MetricScore:      score,
			MetricLatency:    {Warning: 200, Critical: 500, Recovery: 150},
			MetricThroughput: {Warning: 800, Critical: 300, Recovery: 900},
		},
		CategoryError: {
			MetricScore:     score,
			MetricErrorRate: {Warning: 0.05, Critical: 0.10, Recovery: 0.01},
		},
	}
}
