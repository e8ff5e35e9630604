package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dm/vitals-go/internal/model"
)

// Base thresholds for evidence tests: latency 200/500/150, throughput
// 800/300/900, errorRate 0.05/0.10/0.01.
func evidenceCfg() model.ThresholdConfig {
	return model.DefaultThresholds()
}

func TestNeedsEvidence_RecoveryAndDirectJumpsOnly(t *testing.T) {
	cases := []struct {
		from, to model.HealthStatus
		want     bool
	}{
		{model.StatusDegraded, model.StatusHealthy, true},
		{model.StatusUnhealthy, model.StatusDegraded, true},
		{model.StatusHealthy, model.StatusUnhealthy, true},
		{model.StatusUnhealthy, model.StatusHealthy, true},
		{model.StatusHealthy, model.StatusDegraded, false},
		{model.StatusDegraded, model.StatusUnhealthy, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, needsEvidence(tc.from, tc.to), "%v→%v", tc.from, tc.to)
	}
}

func TestJustified_DirectCollapseAlwaysRejected(t *testing.T) {
	// Defense in depth: rejected regardless of how extreme the metrics are.
	sample := model.MetricSample{ResponseTime: 99999, Throughput: 0, ErrorRate: 1}
	err := Justified(model.StatusHealthy, model.StatusUnhealthy, sample, nil, evidenceCfg())
	assert.ErrorIs(t, err, ErrDirectCollapse)
}

func TestJustified_DirectRecoveryAlwaysRejected(t *testing.T) {
	sample := model.MetricSample{ResponseTime: 1, Throughput: 99999, ErrorRate: 0}
	prev := &model.MetricSample{ResponseTime: 500, Throughput: 100, ErrorRate: 0.5}
	err := Justified(model.StatusUnhealthy, model.StatusHealthy, sample, prev, evidenceCfg())
	assert.ErrorIs(t, err, ErrDirectRecovery)
}

func TestJustified_Degrade_AnyWarningSignalSuffices(t *testing.T) {
	cases := []struct {
		name   string
		sample model.MetricSample
		want   error
	}{
		{"healthy metrics", model.MetricSample{ResponseTime: 100, Throughput: 1000, ErrorRate: 0.001}, ErrNoDegradation},
		{"latency at warning", model.MetricSample{ResponseTime: 200, Throughput: 1000, ErrorRate: 0.001}, nil},
		{"throughput at warning", model.MetricSample{ResponseTime: 100, Throughput: 800, ErrorRate: 0.001}, nil},
		{"error rate at warning", model.MetricSample{ResponseTime: 100, Throughput: 1000, ErrorRate: 0.05}, nil},
		{"just under all warnings", model.MetricSample{ResponseTime: 199, Throughput: 801, ErrorRate: 0.049}, ErrNoDegradation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Justified(model.StatusHealthy, model.StatusDegraded, tc.sample, nil, evidenceCfg())
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestJustified_Unhealthy_RequiresCriticalNotWarning(t *testing.T) {
	// Warning-level metrics justify degradation, never collapse.
	warningOnly := model.MetricSample{ResponseTime: 250, Throughput: 700, ErrorRate: 0.06}
	err := Justified(model.StatusDegraded, model.StatusUnhealthy, warningOnly, nil, evidenceCfg())
	assert.ErrorIs(t, err, ErrNotCritical)

	cases := []struct {
		name   string
		sample model.MetricSample
	}{
		{"latency at critical", model.MetricSample{ResponseTime: 500, Throughput: 1000, ErrorRate: 0}},
		{"throughput at critical", model.MetricSample{ResponseTime: 100, Throughput: 300, ErrorRate: 0}},
		{"error rate at critical", model.MetricSample{ResponseTime: 100, Throughput: 1000, ErrorRate: 0.10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, Justified(model.StatusDegraded, model.StatusUnhealthy, tc.sample, nil, evidenceCfg()))
		})
	}
}

func TestJustified_Recovery_RequiresAllRecoveryThresholds(t *testing.T) {
	prev := &model.MetricSample{ResponseTime: 300, Throughput: 500, ErrorRate: 0.05}

	cases := []struct {
		name   string
		sample model.MetricSample
	}{
		{"latency above recovery", model.MetricSample{ResponseTime: 160, Throughput: 1000, ErrorRate: 0}},
		{"throughput below recovery", model.MetricSample{ResponseTime: 100, Throughput: 850, ErrorRate: 0}},
		{"error rate above recovery", model.MetricSample{ResponseTime: 100, Throughput: 1000, ErrorRate: 0.02}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Justified(model.StatusDegraded, model.StatusHealthy, tc.sample, prev, evidenceCfg())
			assert.ErrorIs(t, err, ErrRecoveryMargin)
		})
	}
}

func TestJustified_Recovery_ThresholdsAloneInsufficient(t *testing.T) {
	// Meets every recovery threshold but shows no improvement: latency and
	// throughput both worse, error rate worse.
	sample := model.MetricSample{ResponseTime: 140, Throughput: 950, ErrorRate: 0.009}
	prev := &model.MetricSample{ResponseTime: 120, Throughput: 1000, ErrorRate: 0.001}
	err := Justified(model.StatusDegraded, model.StatusHealthy, sample, prev, evidenceCfg())
	assert.ErrorIs(t, err, ErrNoImprovement)
}

func TestJustified_Recovery_PerformanceImprovementSuffices(t *testing.T) {
	sample := model.MetricSample{ResponseTime: 100, Throughput: 950, ErrorRate: 0.009}
	prev := &model.MetricSample{ResponseTime: 150, Throughput: 1000, ErrorRate: 0.001}
	assert.NoError(t, Justified(model.StatusDegraded, model.StatusHealthy, sample, prev, evidenceCfg()))
}

func TestJustified_Recovery_StableErrorsSuffice(t *testing.T) {
	sample := model.MetricSample{ResponseTime: 140, Throughput: 950, ErrorRate: 0.005}
	prev := &model.MetricSample{ResponseTime: 120, Throughput: 1000, ErrorRate: 0.005}
	assert.NoError(t, Justified(model.StatusDegraded, model.StatusHealthy, sample, prev, evidenceCfg()))
}

func TestJustified_Recovery_NeedsPreviousSample(t *testing.T) {
	sample := model.MetricSample{ResponseTime: 100, Throughput: 1000, ErrorRate: 0}
	err := Justified(model.StatusDegraded, model.StatusHealthy, sample, nil, evidenceCfg())
	assert.ErrorIs(t, err, ErrNoPreviousSample)
}
