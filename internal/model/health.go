package model

import "time"

// HealthStatus classifies a health dimension (or the overall system) into
// one of three levels. There is no total order between levels: only the
// edges enumerated in the transition validator are legal moves.
type HealthStatus int

const (
	StatusHealthy HealthStatus = iota
	StatusDegraded
	StatusUnhealthy
)

// String returns the lowercase name used in logs and field-path analytics.
func (s HealthStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthIndicator is one named health dimension: its status plus a score in
// [0,1] where higher is better.
type HealthIndicator struct {
	Status HealthStatus
	Score  float64
}

// Indicators groups the three health dimensions that compose an overall state.
type Indicators struct {
	Memory      HealthIndicator
	Performance HealthIndicator
	Errors      HealthIndicator
}

// Overall derives the composite status: Unhealthy if any indicator is
// Unhealthy, else Degraded if any is Degraded, else Healthy. The overall
// status of a HealthState is always derived — never set independently —
// except for the explicit trend override applied by the monitor.
func (in Indicators) Overall() HealthStatus {
	switch {
	case in.Memory.Status == StatusUnhealthy,
		in.Performance.Status == StatusUnhealthy,
		in.Errors.Status == StatusUnhealthy:
		return StatusUnhealthy
	case in.Memory.Status == StatusDegraded,
		in.Performance.Status == StatusDegraded,
		in.Errors.Status == StatusDegraded:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// HealthState is one evaluated sample: the overall status, when it was
// evaluated, and the per-dimension detail behind it.
type HealthState struct {
	Status     HealthStatus
	Timestamp  time.Time
	Indicators Indicators
}

// At reports the evaluation time. Implements history.Entry.
func (s HealthState) At() time.Time { return s.Timestamp }

// Field resolves a dotted path to a value for the generic history analytics.
// Unknown paths report false. Implements history.Fielder.
func (s HealthState) Field(path string) (any, bool) {
	switch path {
	case "status":
		return s.Status.String(), true
	case "indicators.memory.status":
		return s.Indicators.Memory.Status.String(), true
	case "indicators.memory.score":
		return s.Indicators.Memory.Score, true
	case "indicators.performance.status":
		return s.Indicators.Performance.Status.String(), true
	case "indicators.performance.score":
		return s.Indicators.Performance.Score, true
	case "indicators.errors.status":
		return s.Indicators.Errors.Status.String(), true
	case "indicators.errors.score":
		return s.Indicators.Errors.Score, true
	default:
		return nil, false
	}
}

// StateTransition records one accepted move between states. Rejected
// proposals never produce a StateTransition; the evaluated sample still
// lands in history.
type StateTransition struct {
	From      HealthStatus
	To        HealthStatus
	Timestamp time.Time
	Reason    string
}

// MetricSample holds the operational numbers behind one evaluation, used by
// the evidence validator. ResponseTime is ms, Throughput tokens/sec,
// ErrorRate a fraction in [0,1].
type MetricSample struct {
	ResponseTime float64
	Throughput   float64
	ErrorRate    float64
}
