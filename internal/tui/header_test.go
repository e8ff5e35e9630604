package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/dm/vitals-go/internal/engine"
)

func TestRenderHeader_WaitingState(t *testing.T) {
	app := NewApp(engine.NewMonitor(engine.Config{}), time.Second, "")
	out := stripANSI(renderHeader(app))
	assert.Contains(t, out, "vitals")
	assert.Contains(t, out, "waiting for samples")
}

func TestRenderHeader_WithState(t *testing.T) {
	app := NewApp(engine.NewMonitor(engine.Config{}), time.Second, "flapping")
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app.Update(testStateMsg())

	out := stripANSI(renderHeader(app))
	assert.Contains(t, out, "vitals")
	assert.Contains(t, out, "[flapping]")
	assert.Contains(t, out, "● DEGRADED")
	assert.Contains(t, out, "Last: 12:00:00")
	assert.Contains(t, out, "Poll: 1s")
}

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "500ms", formatInterval(500*time.Millisecond))
	assert.Equal(t, "10s", formatInterval(10*time.Second))
	assert.Equal(t, "2m", formatInterval(2*time.Minute))
}
