package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dm/vitals-go/internal/engine"
	"github.com/dm/vitals-go/internal/sim"
	"github.com/dm/vitals-go/internal/tui"
)

type options struct {
	interval time.Duration
	scenario sim.Scenario
	history  int
	seed     int64
	logPath  string
}

// validateOptions checks flag values and resolves the scenario name.
func validateOptions(interval time.Duration, history int, scenario string) (sim.Scenario, error) {
	if interval <= 0 {
		return "", fmt.Errorf("--interval must be positive")
	}
	if history <= 0 {
		return "", fmt.Errorf("--history must be positive")
	}
	return sim.ParseScenario(scenario)
}

// buildLogger opens a file-backed zap logger, or a nop logger when path is
// empty. The TUI owns the terminal, so logs never go to stderr.
func buildLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func main() {
	var (
		interval = flag.Duration("interval", time.Second, "dashboard refresh interval (e.g. 500ms, 2s)")
		scenario = flag.String("scenario", "steady", "workload scenario: steady, degrading, flapping or recovering")
		history  = flag.Int("history", 200, "health journal capacity (samples)")
		seed     = flag.Int64("seed", 0, "workload RNG seed (0 = time-based)")
		logPath  = flag.String("log", "", "write diagnostic logs to this file")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: vitals [--interval 1s] [--scenario steady] [--history 200]\n\n")
		fmt.Fprintf(os.Stderr, "examples:\n")
		fmt.Fprintf(os.Stderr, "  vitals\n")
		fmt.Fprintf(os.Stderr, "  vitals --scenario degrading --interval 500ms\n")
		fmt.Fprintf(os.Stderr, "  vitals --scenario flapping --log vitals.log\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "error: unexpected argument %q\n", args[0])
		flag.Usage()
		os.Exit(1)
	}

	sc, err := validateOptions(*interval, *history, *scenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := options{
		interval: *interval,
		scenario: sc,
		history:  *history,
		seed:     *seed,
		logPath:  *logPath,
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the monitor, the synthetic workload and the dashboard, and
// blocks until the dashboard exits.
func run(opts options) error {
	logger, err := buildLogger(opts.logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	mon := engine.NewMonitor(engine.Config{
		HistoryCapacity: opts.history,
		Logger:          logger,
	})
	driver := sim.New(mon, sim.Config{
		Scenario: opts.scenario,
		Seed:     opts.seed,
		Logger:   logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return driver.Run(gctx)
	})

	g.Go(func() error {
		// Quitting the TUI cancels the driver via the deferred cancel.
		defer cancel()
		p := tea.NewProgram(
			tui.NewApp(mon, opts.interval, string(opts.scenario)),
			tea.WithAltScreen(),
		)
		_, err := p.Run()
		return err
	})

	return g.Wait()
}
