package thresholds

import (
	"sort"
	"time"

	"github.com/dm/vitals-go/internal/model"
)

const (
	// loadLeniency controls load scaling: warning/critical values scale by
	// (1 + load*loadLeniency), recovery by its reciprocal. Under load the
	// store tolerates worse numbers but demands more margin to recover.
	loadLeniency = 0.5

	// maxAdjustPerUpdate caps any single Update change at 5% of the current
	// value, regardless of trend magnitude (anti-oscillation hysteresis).
	maxAdjustPerUpdate = 0.05

	// Learning blend: warning moves 10% toward observed*1.1 per confirmed
	// good operation.
	learnRate = 0.10
	learnPad  = 1.10
)

// Default trend windows consulted by Update.
const (
	defaultTrendShort = 30 * time.Second
	defaultTrendLong  = 5 * time.Minute
)

// TrendSource supplies two-window trend analysis over recorded indicator
// scores. Satisfied by *history.Store[model.HealthState].
type TrendSource interface {
	Trend(path string, short, long time.Duration) model.TrendResult
}

// Store holds the live threshold configuration: a fixed base, the current
// (trend- and learning-adjusted) values, and exact-context profile
// overrides. Single-writer; the owning monitor serializes mutation.
type Store struct {
	base     model.ThresholdConfig
	current  model.ThresholdConfig
	profiles map[string]model.ThresholdConfig

	trends      TrendSource
	shortWindow time.Duration
	longWindow  time.Duration
}

// New creates a Store over the supplied base config. A nil base uses
// model.DefaultThresholds(). The base is cloned and never mutated; Reset
// restores it bit for bit.
func New(base model.ThresholdConfig) *Store {
	if base == nil {
		base = model.DefaultThresholds()
	}
	return &Store{
		base:        base.Clone(),
		current:     base.Clone(),
		profiles:    make(map[string]model.ThresholdConfig),
		shortWindow: defaultTrendShort,
		longWindow:  defaultTrendLong,
	}
}

// SetTrendSource wires the history store consulted by Update.
func (s *Store) SetTrendSource(ts TrendSource) { s.trends = ts }

// profileKey identifies a registered profile. System load is a scaling
// input, never part of profile identity.
func profileKey(ctx *model.ThresholdContext) string {
	return ctx.Category + "/" + ctx.Operation
}

// Get resolves thresholds for a context. An exact registered profile wins
// over the current base; either way, a positive system load scales warning
// and critical values by (1 + load*0.5) and recovery values by the
// reciprocal. A nil context returns the current config unscaled. The result
// is always a private copy.
func (s *Store) Get(ctx *model.ThresholdContext) model.ThresholdConfig {
	if ctx == nil {
		return s.current.Clone()
	}
	cfg := s.current
	if p, ok := s.profiles[profileKey(ctx)]; ok {
		cfg = p
	}
	out := cfg.Clone()
	if ctx.SystemLoad <= 0 {
		return out
	}
	factor := 1 + ctx.SystemLoad*loadLeniency
	for _, cat := range out {
		for metric, v := range cat {
			v.Warning *= factor
			v.Critical *= factor
			v.Recovery /= factor
			cat[metric] = v
		}
	}
	return out
}

// RegisterProfile installs an exact-context override consulted by Get
// before load scaling. The config is cloned on the way in.
func (s *Store) RegisterProfile(ctx *model.ThresholdContext, cfg model.ThresholdConfig) {
	if ctx == nil || cfg == nil {
		return
	}
	s.profiles[profileKey(ctx)] = cfg.Clone()
}

// Update recomputes the current thresholds from trend analysis of the
// recorded indicator scores. Categories whose score trend is decreasing
// (getting worse) have their thresholds relaxed toward leniency; every
// change is clamped to at most 5% of the current value per call.
// A store without a trend source is a no-op.
func (s *Store) Update() {
	if s.trends == nil {
		return
	}
	for cat, path := range map[string]string{
		model.CategoryMemory:      "indicators.memory.score",
		model.CategoryPerformance: "indicators.performance.score",
		model.CategoryError:       "indicators.errors.score",
	} {
		tr := s.trends.Trend(path, s.shortWindow, s.longWindow)
		if tr.Direction != model.TrendDecreasing {
			continue
		}
		adj := tr.Magnitude / 100
		if adj > maxAdjustPerUpdate {
			adj = maxAdjustPerUpdate
		}
		s.relaxCategory(cat, adj)
	}
}

// relaxCategory loosens every metric in the category by adj (a fraction).
// Higher-is-worse metrics drift up; higher-is-better metrics drift down.
func (s *Store) relaxCategory(cat string, adj float64) {
	metrics, ok := s.current[cat]
	if !ok {
		return
	}
	for name, v := range metrics {
		if v.HigherIsWorse() {
			v.Warning *= 1 + adj
			v.Critical *= 1 + adj
			v.Recovery *= 1 + adj
		} else {
			v.Warning *= 1 - adj
			v.Critical *= 1 - adj
			v.Recovery *= 1 - adj
		}
		metrics[name] = v
	}
}

// LearnFromOperation nudges warning thresholds toward observed metric values
// from a confirmed-good operation: new warning = 0.9*old + 0.1*(observed*1.1),
// with critical and recovery rescaled to preserve the base config's
// warning:critical and warning:recovery ratios. Explicitly a reward signal;
// callers must not invoke it on failed operations. The score metric is
// derived, not operational, and is never learned.
func (s *Store) LearnFromOperation(ctx *model.ThresholdContext, observed map[string]float64) {
	for _, metric := range sortedKeys(observed) {
		if metric == model.MetricScore {
			continue
		}
		cat := s.categoryFor(ctx, metric)
		if cat == "" {
			continue
		}
		cur := s.current[cat][metric]
		base := s.base[cat][metric]
		if base.Warning == 0 {
			continue
		}
		newWarning := (1-learnRate)*cur.Warning + learnRate*(observed[metric]*learnPad)
		s.current[cat][metric] = model.ThresholdValue{
			Warning:  newWarning,
			Critical: newWarning * (base.Critical / base.Warning),
			Recovery: newWarning * (base.Recovery / base.Warning),
		}
	}
}

// categoryFor locates the category holding a metric: the context's own
// category when it carries the metric, otherwise the first (alphabetical)
// category that does.
func (s *Store) categoryFor(ctx *model.ThresholdContext, metric string) string {
	if ctx != nil && ctx.Category != "" {
		if _, ok := s.current[ctx.Category][metric]; ok {
			return ctx.Category
		}
	}
	names := make([]string, 0, len(s.current))
	for name := range s.current {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := s.current[name][metric]; ok {
			return name
		}
	}
	return ""
}

// Reset restores the current thresholds to the originally supplied base,
// discarding all trend and learning adjustments. Registered profiles are
// explicit configuration and survive a reset.
func (s *Store) Reset() {
	s.current = s.base.Clone()
}

// sortedKeys returns the map keys in stable order.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
