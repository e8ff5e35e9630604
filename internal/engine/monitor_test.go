package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/vitals-go/internal/model"
)

// monitorAt builds a monitor on a movable fake clock.
func monitorAt(cfg Config, now *time.Time) *Monitor {
	return newMonitorAt(cfg, func() time.Time { return *now })
}

func scenarioConfig() Config {
	return Config{
		Transition: TransitionConfig{
			MinStateDuration:        100 * time.Millisecond,
			MaxTransitionsPerMinute: 10,
			ConfirmationSamples:     2,
		},
	}
}

func TestMonitor_StartsHealthy(t *testing.T) {
	m := NewMonitor(Config{})
	s := m.CurrentHealthState()
	assert.Equal(t, model.StatusHealthy, s.Status)
	assert.Equal(t, model.StatusHealthy, s.Indicators.Memory.Status)
	assert.Empty(t, m.Transitions())
}

func TestMonitor_HealthyStreamStaysHealthy(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	for i := 0; i < 20; i++ {
		now = now.Add(200 * time.Millisecond)
		// 100 tokens in 100ms: latency 100ms, throughput 1000 tok/s.
		m.RecordLLMOperation(50, 100, 100, false)
	}

	assert.Equal(t, model.StatusHealthy, m.CurrentHealthState().Status)
	assert.Empty(t, m.Transitions())
	assert.Equal(t, 20, len(m.HealthHistory(0)))
}

// Degrading metrics walk the state through Healthy→Degraded→Unhealthy, one
// edge at a time.
func TestMonitor_DegradationWalksTheGraph(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	// Healthy baseline.
	for i := 0; i < 10; i++ {
		now = now.Add(200 * time.Millisecond)
		m.RecordLLMOperation(50, 100, 100, false)
	}
	require.Equal(t, model.StatusHealthy, m.CurrentHealthState().Status)

	// Warning-level metrics: 80 tokens in 200ms → throughput 400 tok/s,
	// latency drifting toward 200ms.
	for i := 0; i < 40; i++ {
		now = now.Add(200 * time.Millisecond)
		m.RecordLLMOperation(50, 80, 200, false)
	}
	require.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)

	// Critical-level metrics: 30 tokens in 500ms → throughput 60 tok/s.
	for i := 0; i < 40; i++ {
		now = now.Add(200 * time.Millisecond)
		m.RecordLLMOperation(50, 30, 500, false)
	}
	require.Equal(t, model.StatusUnhealthy, m.CurrentHealthState().Status)

	// The walk took both edges in order; no step was skipped.
	trs := m.Transitions()
	require.Len(t, trs, 2)
	assert.Equal(t, model.StatusHealthy, trs[0].From)
	assert.Equal(t, model.StatusDegraded, trs[0].To)
	assert.Equal(t, model.StatusDegraded, trs[1].From)
	assert.Equal(t, model.StatusUnhealthy, trs[1].To)
}

// Audio callbacks near the budget with no underruns and healthy LLM traffic
// collapse the blended scores while the LLM-derived sample stays inside
// every warning threshold. The degradation must still commit.
func TestMonitor_AudioOverloadDegrades(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	for i := 0; i < 5; i++ {
		now = now.Add(200 * time.Millisecond)
		m.RecordLLMOperation(50, 100, 100, false)
	}
	require.Equal(t, model.StatusHealthy, m.CurrentHealthState().Status)

	// 9ms of processing against the 512/48000 ≈ 10.7ms callback budget:
	// audio health ≈ 0.16, dragging memory and performance below warning.
	for i := 0; i < 10; i++ {
		now = now.Add(200 * time.Millisecond)
		m.RecordAudioProcessing(9, 512, 48000)
	}

	assert.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)
	trs := m.Transitions()
	require.Len(t, trs, 1)
	assert.Equal(t, model.StatusHealthy, trs[0].From)
	assert.Equal(t, model.StatusDegraded, trs[0].To)

	// The sample metrics never crossed a warning bound; the move was
	// score-driven.
	cfg := m.CurrentThresholds()
	sample := m.MetricsSnapshot()
	assert.Less(t, sample.ResponseTime, cfg[model.CategoryPerformance][model.MetricLatency].Warning)
	assert.Greater(t, sample.Throughput, cfg[model.CategoryPerformance][model.MetricThroughput].Warning)
	assert.Zero(t, sample.ErrorRate)
}

func TestMonitor_DirectCollapseRejectedButRecorded(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	// A single catastrophic failure scores the error indicator straight to
	// Unhealthy. Healthy→Unhealthy has no edge, so the state must hold.
	now = now.Add(200 * time.Millisecond)
	m.RecordLLMFailure()

	assert.Equal(t, model.StatusHealthy, m.CurrentHealthState().Status)
	assert.Empty(t, m.Transitions())

	// Observability is never gated: the evaluated sample is journaled.
	hist := m.HealthHistory(0)
	require.Len(t, hist, 1)
	assert.Equal(t, model.StatusHealthy, hist[0].Status)
	assert.Equal(t, model.StatusUnhealthy, hist[0].Indicators.Errors.Status)
}

func TestMonitor_RecoveryNeedsConfirmation(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)
	m.current.Status = model.StatusDegraded
	m.current.Indicators = model.Indicators{
		Memory:      model.HealthIndicator{Status: model.StatusDegraded, Score: 0.5},
		Performance: model.HealthIndicator{Status: model.StatusDegraded, Score: 0.5},
		Errors:      model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
	}

	// First good evaluation: candidate Healthy, but the journal is empty,
	// so confirmation (2 samples) fails. The state holds and the sample is
	// journaled under the retained Degraded status.
	now = now.Add(200 * time.Millisecond)
	m.RecordLLMOperation(50, 200, 100, false)
	assert.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)

	// Second good evaluation: still only one journaled sample at check
	// time. Rejected again.
	now = now.Add(200 * time.Millisecond)
	m.RecordLLMOperation(50, 200, 100, false)
	assert.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)

	// Third: two Degraded samples spanning 200ms ≥ 1.5×100ms, and the
	// previous sample shows stable errors — accepted.
	now = now.Add(200 * time.Millisecond)
	m.RecordLLMOperation(50, 200, 100, false)
	assert.Equal(t, model.StatusHealthy, m.CurrentHealthState().Status)

	trs := m.Transitions()
	require.Len(t, trs, 1)
	assert.Equal(t, model.StatusDegraded, trs[0].From)
	assert.Equal(t, model.StatusHealthy, trs[0].To)
}

func TestMonitor_ForceTransition(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	// Structurally illegal commands are reported, not absorbed.
	err := m.ForceTransition(model.StatusUnhealthy, "operator override")
	assert.ErrorIs(t, err, ErrIllegalEdge)
	assert.Equal(t, model.StatusHealthy, m.CurrentHealthState().Status)

	require.NoError(t, m.ForceTransition(model.StatusDegraded, "operator override"))
	assert.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)

	trs := m.Transitions()
	require.Len(t, trs, 1)
	assert.Equal(t, "operator override", trs[0].Reason)
}

func TestMonitor_DwellTimeBlocksRapidFlapping(t *testing.T) {
	now := t0
	m := monitorAt(Config{
		Transition: TransitionConfig{
			MinStateDuration:        500 * time.Millisecond,
			MaxTransitionsPerMinute: 10,
		},
	}, &now)

	require.NoError(t, m.ForceTransition(model.StatusDegraded, "test"))

	now = now.Add(300 * time.Millisecond)
	assert.ErrorIs(t, m.ForceTransition(model.StatusUnhealthy, "test"), ErrDwellTime)

	now = now.Add(300 * time.Millisecond) // 600ms since the last transition
	assert.NoError(t, m.ForceTransition(model.StatusUnhealthy, "test"))
}

func TestMonitor_TrendOverride_PreemptiveDowngrade(t *testing.T) {
	now := t0.Add(5 * time.Minute)
	m := monitorAt(scenarioConfig(), &now)

	// Craft a journal whose memory and performance scores collapsed within
	// the short window: long average ~0.9, short average ~0.5.
	for i := 0; i < 8; i++ {
		m.states.Add(model.HealthState{
			Status:    model.StatusHealthy,
			Timestamp: t0.Add(time.Duration(i) * 30 * time.Second),
			Indicators: model.Indicators{
				Memory:      model.HealthIndicator{Status: model.StatusHealthy, Score: 0.9},
				Performance: model.HealthIndicator{Status: model.StatusHealthy, Score: 0.9},
				Errors:      model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
			},
		})
	}
	m.states.Add(model.HealthState{
		Status:    model.StatusHealthy,
		Timestamp: now.Add(-10 * time.Second),
		Indicators: model.Indicators{
			Memory:      model.HealthIndicator{Status: model.StatusHealthy, Score: 0.5},
			Performance: model.HealthIndicator{Status: model.StatusHealthy, Score: 0.5},
			Errors:      model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
		},
	})

	// The evaluation itself is Healthy (no metrics recorded → perfect
	// scores), but the trend override downgrades preemptively. No metric
	// needs to breach a threshold for the downgrade to commit.
	m.UpdateWindowMetrics(1, 4)

	assert.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)
	trs := m.Transitions()
	require.Len(t, trs, 1)
	assert.Contains(t, trs[0].Reason, "preemptive downgrade")
}

func TestMonitor_TrendOverride_PreemptiveUpgradeUnderLoad(t *testing.T) {
	now := t0.Add(5 * time.Minute)
	m := monitorAt(scenarioConfig(), &now)
	m.current.Status = model.StatusDegraded
	m.SetSystemLoad(0.5) // warning scales to 0.875, recovery to 0.64

	// Scores recovering: long average ~0.55, short average ~0.9.
	for i := 0; i < 8; i++ {
		m.states.Add(model.HealthState{
			Status:    model.StatusDegraded,
			Timestamp: t0.Add(time.Duration(i) * 30 * time.Second),
			Indicators: model.Indicators{
				Memory:      model.HealthIndicator{Status: model.StatusDegraded, Score: 0.5},
				Performance: model.HealthIndicator{Status: model.StatusDegraded, Score: 0.5},
				Errors:      model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
			},
		})
	}
	m.states.Add(model.HealthState{
		Status:    model.StatusDegraded,
		Timestamp: now.Add(-10 * time.Second),
		Indicators: model.Indicators{
			Memory:      model.HealthIndicator{Status: model.StatusDegraded, Score: 0.9},
			Performance: model.HealthIndicator{Status: model.StatusDegraded, Score: 0.9},
			Errors:      model.HealthIndicator{Status: model.StatusHealthy, Score: 1},
		},
	})

	// Audio at 50% of its callback budget holds the blended scores inside
	// the scaled hysteresis band: above recovery (0.64), below the scaled
	// warning (0.875) — candidate stays Degraded on indicator rules alone.
	m.RecordAudioProcessing(5, 480, 48000)
	require.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)

	// Fast LLM traffic: 200 tokens in 100ms clears every recovery bound
	// and improves on the zero-throughput previous sample. The override
	// promotes the candidate and the transition commits.
	now = now.Add(200 * time.Millisecond)
	m.RecordLLMOperation(50, 200, 100, false)

	assert.Equal(t, model.StatusHealthy, m.CurrentHealthState().Status)
	trs := m.Transitions()
	require.Len(t, trs, 1)
	assert.Contains(t, trs[0].Reason, "preemptive upgrade")
}

func TestMonitor_LearnsFromHealthyOperations(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	m.RecordLLMOperation(50, 100, 100, false)

	cfg := m.CurrentThresholds()
	// One healthy evaluation at 100ms latency: warning moved from 200 to
	// 0.9*200 + 0.1*110 = 191. Critical keeps the base 200:500 ratio.
	lat := cfg[model.CategoryPerformance][model.MetricLatency]
	assert.InDelta(t, 191.0, lat.Warning, 1e-9)
	assert.InDelta(t, 477.5, lat.Critical, 1e-9)
}

func TestMonitor_DoesNotLearnWhileDegraded(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)
	m.current.Status = model.StatusDegraded

	// A single good sample cannot pass recovery confirmation, so the state
	// holds Degraded and no reward is applied.
	m.RecordLLMOperation(50, 100, 100, false)
	require.Equal(t, model.StatusDegraded, m.CurrentHealthState().Status)

	lat := m.CurrentThresholds()[model.CategoryPerformance][model.MetricLatency]
	assert.Equal(t, 200.0, lat.Warning)
}

func TestMonitor_QueryAPIs(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	for i := 0; i < 5; i++ {
		now = now.Add(time.Minute)
		m.RecordLLMOperation(50, 100, 100, false)
	}

	assert.Len(t, m.HealthHistory(3), 3)
	assert.Len(t, m.HealthHistory(0), 5)

	// Only the last two samples fall inside a 90s window.
	within := m.StateTransitionsInWindow(90 * time.Second)
	assert.Len(t, within, 2)

	counts := m.StatusCounts()
	assert.Equal(t, 5, counts["healthy"])

	tr := m.AnalyzeTrend("indicators.performance.score", time.Minute, 10*time.Minute)
	assert.Equal(t, model.TrendStable, tr.Direction)
}

func TestMonitor_Uptime(t *testing.T) {
	now := t0
	m := monitorAt(scenarioConfig(), &now)

	// Three healthy samples a minute apart, then 30s of idle tail.
	for i := 0; i < 3; i++ {
		now = now.Add(time.Minute)
		m.RecordLLMOperation(50, 100, 100, false)
	}
	now = now.Add(30 * time.Second)

	stats := m.Uptime(10 * time.Minute)
	assert.Equal(t, 3, stats.Counts["healthy"])
	// Two inter-sample minutes plus the tail up to the clock.
	assert.Equal(t, 2*time.Minute+30*time.Second, stats.Durations["healthy"])
	assert.Zero(t, stats.ChangeRate)
}

func TestMonitor_SystemLoadScalesThresholds(t *testing.T) {
	m := NewMonitor(Config{})
	m.SetSystemLoad(0.5)

	cfg := m.CurrentThresholds()
	lat := cfg[model.CategoryPerformance][model.MetricLatency]
	assert.InDelta(t, 250.0, lat.Warning, 1e-9)
	assert.InDelta(t, 120.0, lat.Recovery, 1e-9)
}
