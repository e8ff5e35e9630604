package sim

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/vitals-go/internal/engine"
)

func TestParseScenario(t *testing.T) {
	for _, name := range []string{"steady", "degrading", "flapping", "recovering"} {
		sc, err := ParseScenario(name)
		require.NoError(t, err)
		assert.Equal(t, Scenario(name), sc)
	}

	_, err := ParseScenario("chaotic")
	assert.Error(t, err)
}

func TestSeverity_Shapes(t *testing.T) {
	d := New(nil, Config{Scenario: Degrading, Seed: 1})
	assert.Equal(t, 0.0, d.severity(0))
	assert.InDelta(t, 0.5, d.severity(30*time.Second), 1e-9)
	assert.Equal(t, 1.0, d.severity(2*time.Minute))

	d = New(nil, Config{Scenario: Recovering, Seed: 1})
	assert.Equal(t, 1.0, d.severity(0))
	assert.Equal(t, 0.0, d.severity(2*time.Minute))

	d = New(nil, Config{Scenario: Flapping, Seed: 1})
	assert.Equal(t, 0.0, d.severity(10*time.Second))
	assert.Equal(t, 0.8, d.severity(40*time.Second))
	assert.Equal(t, 0.0, d.severity(70*time.Second))

	d = New(nil, Config{Scenario: Steady, Seed: 1})
	assert.Equal(t, 0.0, d.severity(45*time.Second))
}

func TestLLMMetrics_SeverityDegradesOutput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tokens, latency, _, _ := llmMetrics(0, rng)
	assert.GreaterOrEqual(t, tokens, 100)
	assert.Less(t, latency, 150.0)

	tokens, latency, _, _ = llmMetrics(1, rng)
	assert.LessOrEqual(t, tokens, 40)
	assert.GreaterOrEqual(t, latency, 600.0)

	// Healthy traffic never fails and never underruns.
	for i := 0; i < 50; i++ {
		_, _, failed, _ := llmMetrics(0, rng)
		assert.False(t, failed)
		_, underrun := audioMetrics(0, rng)
		assert.False(t, underrun)
	}
}

func TestAudioMetrics_StaysUnderBudgetWhenHealthy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	budget := float64(simBufferSize) / float64(simSampleRate) * 1000
	for i := 0; i < 50; i++ {
		processing, _ := audioMetrics(0, rng)
		assert.Less(t, processing, budget)
	}
}

func TestDriver_RunFeedsMonitorUntilCancelled(t *testing.T) {
	mon := engine.NewMonitor(engine.Config{})
	d := New(mon, Config{
		Scenario:      Steady,
		AudioInterval: 5 * time.Millisecond,
		LLMInterval:   5 * time.Millisecond,
		UIInterval:    5 * time.Millisecond,
		// Longer than the test window: host CPU load stays out of the
		// assertion.
		LoadInterval: time.Second,
		Seed:         1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, d.Run(ctx))
	assert.NotEmpty(t, mon.HealthHistory(0))
	assert.Equal(t, "healthy", mon.CurrentHealthState().Status.String())
}
