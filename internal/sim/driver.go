package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dm/vitals-go/internal/engine"
)

// Scenario selects the shape of the synthetic workload.
type Scenario string

const (
	// Steady produces healthy metrics with small jitter.
	Steady Scenario = "steady"
	// Degrading ramps latency up and throughput down over rampWindow.
	Degrading Scenario = "degrading"
	// Flapping alternates between healthy and degraded half-periods.
	Flapping Scenario = "flapping"
	// Recovering starts degraded and ramps back to healthy.
	Recovering Scenario = "recovering"
)

// ParseScenario maps a flag value to a Scenario.
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(s) {
	case Steady, Degrading, Flapping, Recovering:
		return Scenario(s), nil
	}
	return "", fmt.Errorf("unknown scenario %q (want steady, degrading, flapping or recovering)", s)
}

const (
	rampWindow     = 60 * time.Second
	flapPeriod     = 30 * time.Second
	simBufferSize  = 512
	simSampleRate  = 48_000
	simContextSize = 50 // prompt tokens reported per operation
)

// Config tunes the driver's producer cadence. Zero values use defaults.
type Config struct {
	Scenario      Scenario
	AudioInterval time.Duration
	LLMInterval   time.Duration
	UIInterval    time.Duration
	LoadInterval  time.Duration
	Seed          int64
	Logger        *zap.Logger
}

// Driver feeds a Monitor with synthetic audio, LLM and UI traffic on
// independent goroutines, plus host CPU load sampled via gopsutil. It is
// the stand-in for the real producers a host application would wire up.
type Driver struct {
	mon    *engine.Monitor
	cfg    Config
	start  time.Time
	logger *zap.Logger
}

// New builds a Driver around mon.
func New(mon *engine.Monitor, cfg Config) *Driver {
	if cfg.Scenario == "" {
		cfg.Scenario = Steady
	}
	if cfg.AudioInterval <= 0 {
		cfg.AudioInterval = 50 * time.Millisecond
	}
	if cfg.LLMInterval <= 0 {
		cfg.LLMInterval = 500 * time.Millisecond
	}
	if cfg.UIInterval <= 0 {
		cfg.UIInterval = time.Second
	}
	if cfg.LoadInterval <= 0 {
		cfg.LoadInterval = 2 * time.Second
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Driver{mon: mon, cfg: cfg, logger: cfg.Logger}
}

// Run drives all producer loops until ctx is done. Context expiry is the
// normal way to stop the driver and is not reported as an error.
func (d *Driver) Run(ctx context.Context) error {
	d.start = time.Now()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.audioLoop(gctx) })
	g.Go(func() error { return d.llmLoop(gctx) })
	g.Go(func() error { return d.uiLoop(gctx) })
	g.Go(func() error { return d.loadLoop(gctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// severity maps elapsed wall time to a [0,1] badness factor per scenario.
func (d *Driver) severity(elapsed time.Duration) float64 {
	switch d.cfg.Scenario {
	case Degrading:
		return clamp01(elapsed.Seconds() / rampWindow.Seconds())
	case Recovering:
		return clamp01(1 - elapsed.Seconds()/rampWindow.Seconds())
	case Flapping:
		if int(elapsed/flapPeriod)%2 == 1 {
			return 0.8
		}
		return 0
	default:
		return 0
	}
}

// audioMetrics returns the callback processing time in ms and whether this
// callback underran, for the given severity.
func audioMetrics(severity float64, rng *rand.Rand) (float64, bool) {
	// 3ms baseline against a ~10.7ms callback budget, ramping toward 12ms.
	processing := 3 + 9*severity + rng.Float64()
	underrun := rng.Float64() < 0.3*severity
	return processing, underrun
}

// llmMetrics returns response tokens, latency in ms and the failure and
// cache-hit outcomes for the given severity.
func llmMetrics(severity float64, rng *rand.Rand) (tokens int, latencyMs float64, failed, fromCache bool) {
	latencyMs = 100 + 500*severity + 20*rng.Float64()
	tokens = int(math.Round(100 - 70*severity + 10*rng.Float64()))
	failed = rng.Float64() < 0.2*severity
	fromCache = !failed && rng.Float64() < 0.1
	return tokens, latencyMs, failed, fromCache
}

func (d *Driver) audioLoop(ctx context.Context) error {
	rng := rand.New(rand.NewSource(d.cfg.Seed))
	ticker := time.NewTicker(d.cfg.AudioInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			processing, underrun := audioMetrics(d.severity(time.Since(d.start)), rng)
			d.mon.RecordAudioProcessing(processing, simBufferSize, simSampleRate)
			if underrun {
				d.mon.RecordBufferUnderrun()
			}
		}
	}
}

func (d *Driver) llmLoop(ctx context.Context) error {
	rng := rand.New(rand.NewSource(d.cfg.Seed + 1))
	ticker := time.NewTicker(d.cfg.LLMInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tokens, latency, failed, fromCache := llmMetrics(d.severity(time.Since(d.start)), rng)
			if failed {
				d.mon.RecordLLMFailure()
				continue
			}
			d.mon.RecordLLMOperation(simContextSize, tokens, latency, fromCache)
		}
	}
}

func (d *Driver) uiLoop(ctx context.Context) error {
	rng := rand.New(rand.NewSource(d.cfg.Seed + 2))
	ticker := time.NewTicker(d.cfg.UIInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.mon.UpdateWindowMetrics(1+rng.Intn(3), 2+rng.Intn(5))
		}
	}
}

// loadLoop samples host CPU utilization and pushes it into the monitor as
// system load, then runs a threshold trend-feedback pass. CPU sampling
// failures are logged and skipped; the loop keeps going.
func (d *Driver) loadLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.LoadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pcts, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil || len(pcts) == 0 {
				d.logger.Warn("cpu sample failed", zap.Error(err))
			} else {
				d.mon.SetSystemLoad(pcts[0] / 100)
			}
			d.mon.UpdateThresholds()
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
