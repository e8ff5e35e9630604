package engine

import (
	"time"

	"github.com/dm/vitals-go/internal/model"
)

// Accumulator EMA weight: each new observation contributes 10% to the
// rolling average, matching the threshold store's learning rate.
const emaAlpha = 0.1

// Sanity bounds on ingested metrics. Out-of-range values are clamped rather
// than rejected; ingestion never errors.
const (
	maxProcessingTimeMs = 60_000.0
	maxTokensPerSec     = 1_000_000.0
)

// Policy holds the indicator-weighting and trend-override constants. These
// are tuning choices, not laws; DefaultPolicy carries the reference values
// and every field is overridable.
type Policy struct {
	// Memory indicator blend: audio vs LLM contribution.
	MemoryAudioWeight float64
	MemoryLLMWeight   float64

	// Performance indicator blend.
	PerfAudioWeight float64
	PerfLLMWeight   float64

	// LLM score blend: latency vs throughput contribution.
	LatencyWeight    float64
	ThroughputWeight float64

	// Absolute scoring budgets. Scores deliberately normalize against these
	// fixed values, not the (learned, drifting) threshold store: thresholds
	// adapt to what "normal" looks like, scores measure absolute pressure.
	LatencyBudgetMs  float64 // latency at which the latency score hits 0
	ThroughputTarget float64 // tokens/sec at which the throughput score hits 1
	ErrorBudget      float64 // error rate at which the errors score hits 0

	// Trend override magnitudes (percent): a Healthy state preemptively
	// downgrades when memory and performance trends both fall faster than
	// DowngradeTrendPct; a Degraded state preemptively upgrades when both
	// rise faster than UpgradeTrendPct and scores clear recovery.
	DowngradeTrendPct float64
	UpgradeTrendPct   float64

	// Windows for the trend comparisons above.
	TrendShortWindow time.Duration
	TrendLongWindow  time.Duration
}

// DefaultPolicy returns the reference tuning.
func DefaultPolicy() Policy {
	return Policy{
		MemoryAudioWeight: 0.3,
		MemoryLLMWeight:   0.7,
		PerfAudioWeight:   0.6,
		PerfLLMWeight:     0.4,
		LatencyWeight:     0.6,
		ThroughputWeight:  0.4,
		LatencyBudgetMs:   500,
		ThroughputTarget:  900,
		ErrorBudget:       0.1,
		DowngradeTrendPct: 10,
		UpgradeTrendPct:   5,
		TrendShortWindow:  30 * time.Second,
		TrendLongWindow:   5 * time.Minute,
	}
}

// audioStats accumulates audio-callback metrics.
type audioStats struct {
	avgProcessingTime  float64 // ms, EMA
	peakProcessingTime float64 // ms
	callbacks          int64
	underruns          int64
	bufferSize         int // frames
	sampleRate         int // Hz
}

// budgetMs is the wall time one callback may spend: bufferSize/sampleRate.
func (a *audioStats) budgetMs() float64 {
	if a.sampleRate <= 0 {
		return 0
	}
	return float64(a.bufferSize) / float64(a.sampleRate) * 1000
}

// record folds one callback measurement into the accumulators.
func (a *audioStats) record(processingTimeMs float64, bufferSize, sampleRate int) {
	processingTimeMs = clampPositive(processingTimeMs, maxProcessingTimeMs)
	a.bufferSize = bufferSize
	a.sampleRate = sampleRate
	a.callbacks++
	if a.callbacks == 1 {
		a.avgProcessingTime = processingTimeMs
	} else {
		a.avgProcessingTime = (1-emaAlpha)*a.avgProcessingTime + emaAlpha*processingTimeMs
	}
	if processingTimeMs > a.peakProcessingTime {
		a.peakProcessingTime = processingTimeMs
	}
}

// health scores the audio path in [0,1]: how much of the callback budget
// remains, discounted by the underrun rate.
func (a *audioStats) health() float64 {
	if a.callbacks == 0 {
		return 1
	}
	budget := a.budgetMs()
	if budget <= 0 {
		return 1
	}
	utilization := clamp01(a.avgProcessingTime / budget)
	underrunRate := clamp01(safeDivide(float64(a.underruns), float64(a.callbacks)))
	return clamp01((1 - utilization) * (1 - underrunRate))
}

// llmStats accumulates LLM operation metrics.
type llmStats struct {
	avgLatency    float64 // ms, EMA
	avgThroughput float64 // tokens/sec, EMA
	operations    int64
	cacheHits     int64
	failures      int64
}

// record folds one completed LLM operation into the accumulators. Cache hits
// count toward operations but do not move latency or throughput: a cached
// response says nothing about inference health.
func (l *llmStats) record(responseTokens int, responseTimeMs float64, fromCache bool) {
	l.operations++
	if fromCache {
		l.cacheHits++
		return
	}
	tps := 0.0
	if responseTimeMs > 0 {
		tps = clampPositive(float64(responseTokens)/(responseTimeMs/1000), maxTokensPerSec)
	}
	if l.operations-l.cacheHits == 1 {
		l.avgLatency = responseTimeMs
		l.avgThroughput = tps
		return
	}
	l.avgLatency = (1-emaAlpha)*l.avgLatency + emaAlpha*responseTimeMs
	l.avgThroughput = (1-emaAlpha)*l.avgThroughput + emaAlpha*tps
}

// health scores the LLM path in [0,1] against the fixed policy budgets:
// latency normalized by the latency budget, throughput by the throughput
// target, blended by policy weights.
func (l *llmStats) health(p Policy) float64 {
	if l.operations == 0 {
		return 1
	}
	latencyScore := 1.0
	if p.LatencyBudgetMs > 0 {
		latencyScore = 1 - clamp01(l.avgLatency/p.LatencyBudgetMs)
	}
	throughputScore := 1.0
	if p.ThroughputTarget > 0 {
		throughputScore = clamp01(l.avgThroughput / p.ThroughputTarget)
	}
	return clamp01(p.LatencyWeight*latencyScore + p.ThroughputWeight*throughputScore)
}

// errorRate is the fraction of failed operations plus audio underruns over
// everything recorded.
func errorRate(a *audioStats, l *llmStats) float64 {
	total := a.callbacks + l.operations
	if total == 0 {
		return 0
	}
	return clamp01(float64(a.underruns+l.failures) / float64(total))
}

// uiStats tracks visualization pressure pushed in by the UI tick.
type uiStats struct {
	windowCount          int
	activeVisualizations int
}

// scoreIndicators derives the three indicator scores and statuses from the
// accumulators. Score polarity is higher-is-better throughout, the opposite
// of latency-style metrics; statusForScore encodes that.
func scoreIndicators(p Policy, a *audioStats, l *llmStats, sample model.MetricSample, cfg model.ThresholdConfig) model.Indicators {
	audioScore := a.health()
	llmScore := l.health(p)

	memScore := clamp01(p.MemoryAudioWeight*audioScore + p.MemoryLLMWeight*llmScore)
	perfScore := clamp01(p.PerfAudioWeight*audioScore + p.PerfLLMWeight*llmScore)

	errScore := 1.0
	if p.ErrorBudget > 0 {
		errScore = 1 - clamp01(sample.ErrorRate/p.ErrorBudget)
	}

	return model.Indicators{
		Memory:      indicatorFor(memScore, cfg[model.CategoryMemory][model.MetricScore]),
		Performance: indicatorFor(perfScore, cfg[model.CategoryPerformance][model.MetricScore]),
		Errors:      indicatorFor(errScore, cfg[model.CategoryError][model.MetricScore]),
	}
}

// indicatorFor maps a higher-is-better score to a status: at or above
// warning is Healthy, at or above critical is Degraded, below is Unhealthy.
func indicatorFor(score float64, tv model.ThresholdValue) model.HealthIndicator {
	return model.HealthIndicator{Status: statusForScore(score, tv), Score: score}
}

func statusForScore(score float64, tv model.ThresholdValue) model.HealthStatus {
	switch {
	case score >= tv.Warning:
		return model.StatusHealthy
	case score >= tv.Critical:
		return model.StatusDegraded
	default:
		return model.StatusUnhealthy
	}
}

// clamp01 bounds v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampPositive bounds v to [0, max]; negative input reads as 0.
func clampPositive(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// safeDivide returns a/b, or 0 when b is zero.
func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
