package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dm/vitals-go/internal/history"
	"github.com/dm/vitals-go/internal/model"
	"github.com/dm/vitals-go/internal/thresholds"
)

const defaultHistoryCapacity = 200

// Config wires a Monitor. Zero-value fields fall back to defaults.
type Config struct {
	Policy     Policy
	Transition TransitionConfig
	// Thresholds is the base threshold config; nil uses
	// model.DefaultThresholds().
	Thresholds model.ThresholdConfig
	// HistoryCapacity bounds the state journal; <= 0 uses 200.
	HistoryCapacity int
	// Logger receives transition diagnostics; nil disables logging.
	Logger *zap.Logger
}

// Monitor is the composition root: it ingests domain metrics, scores the
// three health indicators, asks the transition and evidence validators
// whether to move state, and exposes the derived adaptive settings and
// query APIs.
//
// Every ingestion call runs the full scoring→validation→commit pipeline to
// completion under one mutex; producers on other goroutines serialize on
// it. The pipeline is pure computation — no I/O, no cancellation.
type Monitor struct {
	mu sync.Mutex

	policy     Policy
	logger     *zap.Logger
	thresholds *thresholds.Store
	states     *history.Store[model.HealthState]
	validator  *TransitionValidator

	current     model.HealthState
	transitions []model.StateTransition
	prevSample  *model.MetricSample

	audio audioStats
	llm   llmStats
	ui    uiStats

	// ctx carries the operational context for threshold lookups; system
	// load is pushed in via SetSystemLoad.
	ctx model.ThresholdContext

	now func() time.Time
}

// NewMonitor creates a Monitor starting in the Healthy state.
func NewMonitor(cfg Config) *Monitor {
	return newMonitorAt(cfg, time.Now)
}

// newMonitorAt is the clock-injected constructor behind NewMonitor.
func newMonitorAt(cfg Config, now func() time.Time) *Monitor {
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Transition == (TransitionConfig{}) {
		cfg.Transition = DefaultTransitionConfig()
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = defaultHistoryCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	states := history.NewWithClock[model.HealthState](cfg.HistoryCapacity, now)
	store := thresholds.New(cfg.Thresholds)
	store.SetTrendSource(states)

	v := NewTransitionValidator(cfg.Transition, states, cfg.Logger)
	v.now = now

	m := &Monitor{
		policy:     cfg.Policy,
		logger:     cfg.Logger,
		thresholds: store,
		states:     states,
		validator:  v,
		ctx:        model.ThresholdContext{Category: model.CategoryPerformance, Operation: "evaluate"},
		now:        now,
	}
	m.current = model.HealthState{
		Status:    model.StatusHealthy,
		Timestamp: now(),
		Indicators: model.Indicators{
			Memory:      model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
			Performance: model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
			Errors:      model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
		},
	}
	return m
}

// RecordAudioProcessing ingests one audio callback measurement and runs an
// evaluation pass.
func (m *Monitor) RecordAudioProcessing(processingTimeMs float64, bufferSize, sampleRate int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio.record(processingTimeMs, bufferSize, sampleRate)
	m.evaluate()
}

// RecordLLMOperation ingests one completed LLM operation and runs an
// evaluation pass. promptTokens is accepted for symmetry with the producer
// call site; scoring keys off response tokens and latency.
func (m *Monitor) RecordLLMOperation(promptTokens, responseTokens int, responseTimeMs float64, fromCache bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.llm.record(responseTokens, responseTimeMs, fromCache)
	m.evaluate()
}

// RecordLLMFailure ingests a failed LLM operation.
func (m *Monitor) RecordLLMFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.llm.operations++
	m.llm.failures++
	m.evaluate()
}

// RecordBufferUnderrun ingests an audio buffer underrun and runs an
// evaluation pass.
func (m *Monitor) RecordBufferUnderrun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio.underruns++
	m.evaluate()
}

// UpdateWindowMetrics ingests UI pressure and runs an evaluation pass.
func (m *Monitor) UpdateWindowMetrics(windowCount, activeVisualizations int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ui.windowCount = windowCount
	m.ui.activeVisualizations = activeVisualizations
	m.evaluate()
}

// SetSystemLoad updates the load input for threshold scaling, clamped to
// [0,1]. Pushed by whoever samples the host (the sim driver here).
func (m *Monitor) SetSystemLoad(load float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx.SystemLoad = clamp01(load)
}

// UpdateThresholds runs one trend-feedback pass over the threshold store.
func (m *Monitor) UpdateThresholds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds.Update()
}

// ResetThresholds restores the threshold store to its base config.
func (m *Monitor) ResetThresholds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds.Reset()
}

// RegisterThresholdProfile installs a context-specific threshold override.
func (m *Monitor) RegisterThresholdProfile(ctx *model.ThresholdContext, cfg model.ThresholdConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds.RegisterProfile(ctx, cfg)
}

// evaluate runs one scoring→validation→commit pass. Callers hold m.mu.
func (m *Monitor) evaluate() {
	now := m.now()
	cfg := m.thresholds.Get(&m.ctx)

	sample := model.MetricSample{
		ResponseTime: m.llm.avgLatency,
		Throughput:   m.llm.avgThroughput,
		ErrorRate:    errorRate(&m.audio, &m.llm),
	}

	inds := scoreIndicators(m.policy, &m.audio, &m.llm, sample, cfg)
	candidate := inds.Overall()
	candidate, overrideReason := m.applyTrendOverride(candidate, inds, cfg)

	if candidate == m.current.Status {
		// Same status: merge the fresh detail into the current state and
		// journal it.
		m.current.Indicators = inds
		m.current.Timestamp = now
		m.states.Add(m.current)
		m.learnIfHealthy(candidate, sample)
		m.prevSample = &sample
		return
	}

	reason := "metric evaluation"
	if overrideReason != "" {
		reason = overrideReason
	}

	structural := m.validator.CanTransition(m.current.Status, candidate)
	var evidential error
	if needsEvidence(m.current.Status, candidate) {
		evidential = Justified(m.current.Status, candidate, sample, m.prevSample, cfg)
	}

	if structural == nil && evidential == nil {
		m.commit(model.HealthState{Status: candidate, Timestamp: now, Indicators: inds}, reason)
	} else {
		// State commitment is gated; observability is not. The journal gets
		// the evaluated detail under the retained status so trend analysis
		// and confirmation sampling see every pass.
		if structural != nil {
			m.logger.Debug("transition rejected",
				zap.String("from", m.current.Status.String()),
				zap.String("to", candidate.String()),
				zap.Error(structural))
		}
		if evidential != nil {
			m.logger.Debug("transition unjustified",
				zap.String("from", m.current.Status.String()),
				zap.String("to", candidate.String()),
				zap.Error(evidential))
		}
		m.states.Add(model.HealthState{Status: m.current.Status, Timestamp: now, Indicators: inds})
	}

	m.learnIfHealthy(candidate, sample)
	m.prevSample = &sample
}

// applyTrendOverride preemptively downgrades a Healthy candidate when both
// memory and performance score trends fall hard, and upgrades a Degraded
// candidate when both rise and every indicator clears its recovery score.
func (m *Monitor) applyTrendOverride(candidate model.HealthStatus, inds model.Indicators, cfg model.ThresholdConfig) (model.HealthStatus, string) {
	memTr := m.states.Trend("indicators.memory.score", m.policy.TrendShortWindow, m.policy.TrendLongWindow)
	perfTr := m.states.Trend("indicators.performance.score", m.policy.TrendShortWindow, m.policy.TrendLongWindow)

	if m.current.Status == model.StatusHealthy && candidate == model.StatusHealthy {
		if memTr.Direction == model.TrendDecreasing && perfTr.Direction == model.TrendDecreasing &&
			memTr.Magnitude > m.policy.DowngradeTrendPct && perfTr.Magnitude > m.policy.DowngradeTrendPct {
			return model.StatusDegraded, "preemptive downgrade: memory and performance trending down"
		}
	}

	if m.current.Status == model.StatusDegraded && candidate == model.StatusDegraded {
		if memTr.Direction == model.TrendIncreasing && perfTr.Direction == model.TrendIncreasing &&
			memTr.Magnitude > m.policy.UpgradeTrendPct && perfTr.Magnitude > m.policy.UpgradeTrendPct &&
			m.scoresClearRecovery(inds, cfg) {
			return model.StatusHealthy, "preemptive upgrade: memory and performance trending up"
		}
	}

	return candidate, ""
}

// scoresClearRecovery reports whether every indicator score meets its
// (load-adjusted) recovery threshold.
func (m *Monitor) scoresClearRecovery(inds model.Indicators, cfg model.ThresholdConfig) bool {
	return inds.Memory.Score >= cfg[model.CategoryMemory][model.MetricScore].Recovery &&
		inds.Performance.Score >= cfg[model.CategoryPerformance][model.MetricScore].Recovery &&
		inds.Errors.Score >= cfg[model.CategoryError][model.MetricScore].Recovery
}

// commit applies an accepted transition. Callers hold m.mu.
func (m *Monitor) commit(next model.HealthState, reason string) {
	tr := model.StateTransition{
		From:      m.current.Status,
		To:        next.Status,
		Timestamp: next.Timestamp,
		Reason:    reason,
	}
	m.validator.RecordAccepted()
	m.transitions = append(m.transitions, tr)
	m.current = next
	m.states.Add(next)
	m.logger.Info("health transition",
		zap.String("from", tr.From.String()),
		zap.String("to", tr.To.String()),
		zap.String("reason", reason))
}

// learnIfHealthy feeds the threshold store's reward signal after a healthy
// evaluation backed by real (non-cache) LLM operations. Both the evaluated
// candidate and the committed state must be Healthy: a rejected collapse
// holds the Healthy state, but its metrics are not a reward.
func (m *Monitor) learnIfHealthy(candidate model.HealthStatus, sample model.MetricSample) {
	if candidate != model.StatusHealthy || m.current.Status != model.StatusHealthy {
		return
	}
	if m.llm.operations-m.llm.cacheHits == 0 {
		return
	}
	m.thresholds.LearnFromOperation(&m.ctx, map[string]float64{
		model.MetricLatency:    sample.ResponseTime,
		model.MetricThroughput: sample.Throughput,
		model.MetricErrorRate:  sample.ErrorRate,
	})
}

// ForceTransition is the explicit command surface: it attempts a transition
// to the given status and reports a structural rejection to the caller,
// unlike the always-silent auto-evaluation path.
func (m *Monitor) ForceTransition(to model.HealthStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.validator.CanTransition(m.current.Status, to); err != nil {
		return err
	}
	next := m.current
	next.Status = to
	next.Timestamp = m.now()
	m.commit(next, reason)
	return nil
}

// MetricsSnapshot returns the rolled-up sample metrics as of the last
// ingestion: EMA latency and throughput plus the cumulative error rate.
func (m *Monitor) MetricsSnapshot() model.MetricSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.MetricSample{
		ResponseTime: m.llm.avgLatency,
		Throughput:   m.llm.avgThroughput,
		ErrorRate:    errorRate(&m.audio, &m.llm),
	}
}

// SystemLoad returns the last load pushed via SetSystemLoad.
func (m *Monitor) SystemLoad() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx.SystemLoad
}

// CurrentThresholds returns the resolved threshold config for the current
// evaluation context, including any load scaling in effect.
func (m *Monitor) CurrentThresholds() model.ThresholdConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thresholds.Get(&m.ctx)
}

// CurrentHealthState returns the current validated state.
func (m *Monitor) CurrentHealthState() model.HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// HealthHistory returns up to limit recorded states, most recent last.
// limit <= 0 returns the full journal.
func (m *Monitor) HealthHistory(limit int) []model.HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		return m.states.All()
	}
	return m.states.Last(limit)
}

// StateTransitionsInWindow returns the recorded state samples within the
// trailing window, oldest first.
func (m *Monitor) StateTransitionsInWindow(window time.Duration) []model.HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states.RecentWindow(window)
}

// Transitions returns the accepted transition log, oldest first.
func (m *Monitor) Transitions() []model.StateTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.StateTransition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// AnalyzeTrend runs the generic two-window trend analysis over the state
// journal.
func (m *Monitor) AnalyzeTrend(path string, short, long time.Duration) model.TrendResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states.Trend(path, short, long)
}

// StatusCounts returns how many journaled samples carry each status.
func (m *Monitor) StatusCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states.Frequency("status")
}

// UptimeStats aggregates the journal: per-status sample counts, per-status
// dwell-time totals, and how often the status changed over a trailing
// window.
type UptimeStats struct {
	Counts     map[string]int
	Durations  map[string]time.Duration
	ChangeRate float64 // status changes per minute over the window
}

// Uptime derives aggregate stats from the state journal. Dwell time for
// each sample runs until the next sample; the newest sample accrues up to
// the current clock.
func (m *Monitor) Uptime(window time.Duration) UptimeStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := UptimeStats{
		Counts:     m.states.Frequency("status"),
		Durations:  make(map[string]time.Duration),
		ChangeRate: m.states.ChangeRate("status", window),
	}
	all := m.states.LastStamped(m.states.Count())
	for i := 1; i < len(all); i++ {
		key := all[i-1].Value.Status.String()
		stats.Durations[key] += all[i].At.Sub(all[i-1].At)
	}
	if len(all) > 0 {
		last := all[len(all)-1]
		if tail := m.now().Sub(last.At); tail > 0 {
			stats.Durations[last.Value.Status.String()] += tail
		}
	}
	return stats
}
