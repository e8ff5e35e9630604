package engine

import (
	"errors"

	"github.com/dm/vitals-go/internal/model"
)

// Rejection reasons for evidentially unjustified moves. Structural legality
// and evidence are independent checks; both must pass.
var (
	ErrDirectCollapse   = errors.New("evidence rejected: direct healthy to unhealthy collapse")
	ErrDirectRecovery   = errors.New("evidence rejected: direct unhealthy to healthy recovery")
	ErrNoDegradation    = errors.New("evidence rejected: no metric crosses its warning threshold")
	ErrNotCritical      = errors.New("evidence rejected: no metric crosses its critical threshold")
	ErrRecoveryMargin   = errors.New("evidence rejected: metrics do not meet all recovery thresholds")
	ErrNoImprovement    = errors.New("evidence rejected: no directional improvement over previous sample")
	ErrNoPreviousSample = errors.New("evidence rejected: recovery requires a previous sample for comparison")
)

// needsEvidence reports the edges the orchestrator submits to Justified:
// moves toward health, plus the forbidden direct jumps between Healthy and
// Unhealthy. Degrade edges commit on indicator scores alone; an audio
// overload collapses the blended scores without the LLM-derived sample
// crossing any threshold.
func needsEvidence(from, to model.HealthStatus) bool {
	switch {
	case isRecoveryEdge(from, to):
		return true
	case from == model.StatusHealthy && to == model.StatusUnhealthy:
		return true
	case from == model.StatusUnhealthy && to == model.StatusHealthy:
		return true
	}
	return false
}

// Justified decides whether a proposed status move is warranted by the
// metrics behind it, independent of structural legality. prev is the
// immediately preceding sample, nil when none exists. cfg is the resolved
// (context- and load-adjusted) threshold config for this evaluation.
//
// Some rules duplicate graph edges on purpose (defense in depth): a direct
// Healthy→Unhealthy move is rejected here even though the transition
// validator already has no such edge. The orchestrator consults Justified
// only on the needsEvidence edges; the degrade-edge rules serve callers
// that want a sample-level check on any move.
func Justified(from, to model.HealthStatus, curr model.MetricSample, prev *model.MetricSample, cfg model.ThresholdConfig) error {
	switch {
	case from == model.StatusHealthy && to == model.StatusUnhealthy:
		return ErrDirectCollapse
	case from == model.StatusUnhealthy && to == model.StatusHealthy:
		return ErrDirectRecovery
	}

	lat := cfg[model.CategoryPerformance][model.MetricLatency]
	tp := cfg[model.CategoryPerformance][model.MetricThroughput]
	er := cfg[model.CategoryError][model.MetricErrorRate]

	switch to {
	case model.StatusDegraded:
		// Any one degrading signal is sufficient.
		if curr.ResponseTime >= lat.Warning ||
			curr.Throughput <= tp.Warning ||
			curr.ErrorRate >= er.Warning {
			return nil
		}
		return ErrNoDegradation

	case model.StatusUnhealthy:
		// Only the degraded→unhealthy edge reaches here; it takes critical,
		// not warning, thresholds.
		if curr.ResponseTime >= lat.Critical ||
			curr.Throughput <= tp.Critical ||
			curr.ErrorRate >= er.Critical {
			return nil
		}
		return ErrNotCritical

	case model.StatusHealthy:
		// All recovery thresholds must be met...
		if curr.ResponseTime > lat.Recovery ||
			curr.Throughput < tp.Recovery ||
			curr.ErrorRate > er.Recovery {
			return ErrRecoveryMargin
		}
		// ...and meeting them alone is insufficient: the move also needs
		// directional improvement versus the preceding sample.
		if prev == nil {
			return ErrNoPreviousSample
		}
		perfImproved := curr.ResponseTime < prev.ResponseTime || curr.Throughput > prev.Throughput
		errorsStable := curr.ErrorRate <= prev.ErrorRate
		if perfImproved || errorsStable {
			return nil
		}
		return ErrNoImprovement
	}
	return nil
}
