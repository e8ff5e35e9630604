package engine

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dm/vitals-go/internal/history"
	"github.com/dm/vitals-go/internal/model"
)

// Rejection reasons for proposed transitions. The monitor's auto-evaluation
// path absorbs these silently (logging only); ForceTransition surfaces them
// to the caller.
var (
	ErrSameState   = errors.New("transition rejected: already in target state")
	ErrIllegalEdge = errors.New("transition rejected: edge not in state graph")
	ErrDwellTime   = errors.New("transition rejected: minimum state duration not met")
	ErrRateLimited = errors.New("transition rejected: per-minute transition cap reached")
	ErrUnconfirmed = errors.New("transition rejected: recovery not confirmed by stable samples")
)

// Confirmation span multipliers for recovery edges. Unhealthy→Degraded
// demands a longer stability proof than Degraded→Healthy.
const (
	confirmSpanDegradedToHealthy   = 1.5
	confirmSpanUnhealthyToDegraded = 2.0
)

// TransitionConfig tunes the structural legality rules.
type TransitionConfig struct {
	// MinStateDuration is the dwell time: how long the current state must
	// persist before any further transition is legal.
	MinStateDuration time.Duration
	// MaxTransitionsPerMinute caps accepted transitions per wall-clock
	// minute (anti-flapping). The window resets every 60s, not per
	// transition.
	MaxTransitionsPerMinute int
	// ConfirmationSamples is how many consecutive recorded states must
	// match the current state before a recovery edge is trusted.
	ConfirmationSamples int
}

// DefaultTransitionConfig returns the production tuning.
func DefaultTransitionConfig() TransitionConfig {
	return TransitionConfig{
		MinStateDuration:        5 * time.Second,
		MaxTransitionsPerMinute: 6,
		ConfirmationSamples:     3,
	}
}

// TransitionValidator decides whether a candidate (from, to) move is
// structurally legal: graph membership, dwell time, rate limiting, and
// confirmation sampling on recovery edges. It is deliberately ignorant of
// WHY a transition is proposed; metric justification is the evidence
// validator's job.
type TransitionValidator struct {
	cfg    TransitionConfig
	states *history.Store[model.HealthState]
	logger *zap.Logger

	lastTransition time.Time
	windowStart    time.Time
	windowCount    int

	now func() time.Time
}

// NewTransitionValidator creates a validator over the shared state history.
// A nil logger disables diagnostics.
func NewTransitionValidator(cfg TransitionConfig, states *history.Store[model.HealthState], logger *zap.Logger) *TransitionValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionValidator{
		cfg:    cfg,
		states: states,
		logger: logger,
		now:    time.Now,
	}
}

// legalEdge reports whether (from, to) is in the directed state graph.
// Healthy↔Unhealthy has no direct edge in either direction.
func legalEdge(from, to model.HealthStatus) bool {
	switch {
	case from == model.StatusHealthy && to == model.StatusDegraded:
		return true
	case from == model.StatusDegraded && to == model.StatusHealthy:
		return true
	case from == model.StatusDegraded && to == model.StatusUnhealthy:
		return true
	case from == model.StatusUnhealthy && to == model.StatusDegraded:
		return true
	default:
		return false
	}
}

// isRecoveryEdge reports whether the edge moves toward health and therefore
// requires confirmation sampling.
func isRecoveryEdge(from, to model.HealthStatus) bool {
	return (from == model.StatusDegraded && to == model.StatusHealthy) ||
		(from == model.StatusUnhealthy && to == model.StatusDegraded)
}

// CanTransition returns nil when the move is structurally legal, or one of
// the Err* rejection reasons.
func (v *TransitionValidator) CanTransition(from, to model.HealthStatus) error {
	if from == to {
		return ErrSameState
	}
	if !legalEdge(from, to) {
		return ErrIllegalEdge
	}

	now := v.now()
	// Dwell time counts from the last accepted transition; before the first
	// one there is nothing to dwell in.
	if !v.lastTransition.IsZero() && now.Sub(v.lastTransition) < v.cfg.MinStateDuration {
		return ErrDwellTime
	}

	v.rollWindow(now)
	if v.cfg.MaxTransitionsPerMinute > 0 && v.windowCount >= v.cfg.MaxTransitionsPerMinute {
		return ErrRateLimited
	}

	if isRecoveryEdge(from, to) {
		if err := v.confirmStability(from, to); err != nil {
			return err
		}
	}
	return nil
}

// confirmStability requires the last ConfirmationSamples recorded states to
// all equal the current state, spanning at least MinStateDuration times the
// edge's multiplier. Any blip among the samples invalidates the whole proof.
func (v *TransitionValidator) confirmStability(from, to model.HealthStatus) error {
	n := v.cfg.ConfirmationSamples
	if n <= 0 {
		return nil
	}
	recent := v.states.LastStamped(n)
	if len(recent) < n {
		return ErrUnconfirmed
	}
	for _, s := range recent {
		if s.Value.Status != from {
			return ErrUnconfirmed
		}
	}

	factor := confirmSpanDegradedToHealthy
	if from == model.StatusUnhealthy {
		factor = confirmSpanUnhealthyToDegraded
	}
	// Effective journal timestamps, not the entries' own: Add stamps zero
	// timestamps only in the journal record.
	span := recent[len(recent)-1].At.Sub(recent[0].At)
	need := time.Duration(float64(v.cfg.MinStateDuration) * factor)
	if span < need {
		return ErrUnconfirmed
	}
	return nil
}

// RecordAccepted updates dwell and rate-limit bookkeeping after a committed
// transition. Callers invoke it exactly once per accepted move.
func (v *TransitionValidator) RecordAccepted() {
	now := v.now()
	v.rollWindow(now)
	v.lastTransition = now
	v.windowCount++
}

// rollWindow resets the per-minute counter when a full wall-clock minute has
// elapsed since the window opened.
func (v *TransitionValidator) rollWindow(now time.Time) {
	if now.Sub(v.windowStart) >= time.Minute {
		v.windowStart = now
		v.windowCount = 0
	}
}
