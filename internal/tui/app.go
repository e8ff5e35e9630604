package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/vitals-go/internal/engine"
	"github.com/dm/vitals-go/internal/model"
)

// historyWindow is how many journaled states feed the score sparklines.
const historyWindow = 120

// App is the root Bubble Tea model for the vitals dashboard. It polls the
// monitor on an interval; the monitor itself is fed elsewhere (the sim
// driver, or a host application's producers).
type App struct {
	mon          *engine.Monitor
	pollInterval time.Duration
	scenario     string

	// Last poll.
	state       model.HealthState
	transitions []model.StateTransition
	settings    model.QualitySettings
	sample      model.MetricSample
	load        float64
	memTrend    model.TrendResult
	perfTrend   model.TrendResult
	history     []model.HealthState
	lastUpdated time.Time
	hasState    bool

	// Layout
	width, height int

	// UI state
	showHelp bool
}

// NewApp creates the dashboard around mon. scenario is display-only.
func NewApp(mon *engine.Monitor, interval time.Duration, scenario string) *App {
	if interval <= 0 {
		interval = time.Second
	}
	return &App{
		mon:          mon,
		pollInterval: interval,
		scenario:     scenario,
	}
}

// Init implements tea.Model. Polls immediately on launch.
func (app *App) Init() tea.Cmd {
	return pollCmd(app.mon)
}

// Update implements tea.Model — the single state-mutation entry point.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case StateMsg:
		app.state = msg.State
		app.transitions = msg.Transitions
		app.settings = msg.Settings
		app.sample = msg.Sample
		app.load = msg.Load
		app.memTrend = msg.MemTrend
		app.perfTrend = msg.PerfTrend
		app.history = msg.History
		app.lastUpdated = msg.At
		app.hasState = true
		return app, tickCmd(app.pollInterval)

	case TickMsg:
		return app, pollCmd(app.mon)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return app, tea.Quit
		case key.Matches(msg, keys.ResetThresholds):
			app.mon.ResetThresholds()
			return app, pollCmd(app.mon)
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
		}
	}

	return app, nil
}

// View implements tea.Model. Renders the full dashboard.
func (app *App) View() string {
	var parts []string

	parts = append(parts, renderHeader(app))
	if s := renderIndicators(app); s != "" {
		parts = append(parts, s)
	}
	if s := renderMetricsRow(app); s != "" {
		parts = append(parts, s)
	}
	if s := renderSettingsPanel(app); s != "" {
		parts = append(parts, s)
	}
	if s := renderTransitionLog(app); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

// tickCmd schedules the next poll after duration d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// pollCmd reads the monitor's query APIs and packages them as one StateMsg.
// Pure in-process reads; unlike a network poll there is no error path.
func pollCmd(mon *engine.Monitor) tea.Cmd {
	return func() tea.Msg {
		short := 30 * time.Second
		long := 5 * time.Minute
		return StateMsg{
			State:       mon.CurrentHealthState(),
			Transitions: mon.Transitions(),
			Settings:    mon.AdaptiveQualitySettings(),
			Sample:      mon.MetricsSnapshot(),
			Load:        mon.SystemLoad(),
			MemTrend:    mon.AnalyzeTrend("indicators.memory.score", short, long),
			PerfTrend:   mon.AnalyzeTrend("indicators.performance.score", short, long),
			History:     mon.HealthHistory(historyWindow),
			At:          time.Now(),
		}
	}
}
