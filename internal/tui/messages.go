package tui

import (
	"time"

	"github.com/dm/vitals-go/internal/model"
)

// StateMsg delivers one monitor poll to the TUI.
type StateMsg struct {
	State       model.HealthState
	Transitions []model.StateTransition
	Settings    model.QualitySettings
	Sample      model.MetricSample
	Load        float64
	MemTrend    model.TrendResult
	PerfTrend   model.TrendResult
	History     []model.HealthState
	At          time.Time
}

// TickMsg triggers the next scheduled poll.
type TickMsg time.Time
