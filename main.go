package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/hsmooth/config"
	"github.com/pthm-cable/hsmooth/particles"
	"github.com/pthm-cable/hsmooth/smoothing"
	"github.com/pthm-cable/hsmooth/telemetry"
)

// options holds command line overrides of the loaded config.
type options struct {
	input     string
	outputDir string
	ndim      int
	kernel    string
	eta       float64
	seed      int64
	workers   int
	repeat    int
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	var opts options
	flag.StringVar(&opts.input, "input", "", "Particle CSV with x,y,m columns (overrides initial_conditions)")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Output directory for CSV results and config snapshot")
	flag.IntVar(&opts.ndim, "ndim", 0, "Number of dimensions, 1 or 2 (0 = use config)")
	flag.StringVar(&opts.kernel, "kernel", "", "Kernel name (empty = use config)")
	flag.Float64Var(&opts.eta, "eta", 0, "Resolution eta (0 = use config)")
	flag.Int64Var(&opts.seed, "seed", 0, "RNG seed for generated particles (0 = use config)")
	flag.IntVar(&opts.workers, "workers", -1, "Solver goroutines (-1 = use config, 0 = GOMAXPROCS)")
	flag.IntVar(&opts.repeat, "repeat", 1, "Repeat the computation N times for timing")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if err := opts.apply(cfg); err != nil {
		slog.Error("invalid command line", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts.repeat); err != nil {
		slog.Error("smoothing length computation failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// apply writes the set flags into cfg and revalidates it.
func (o options) apply(cfg *config.Config) error {
	if o.input != "" {
		cfg.InitialConditions.Input = o.input
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
	if o.ndim != 0 {
		cfg.Solver.NDim = o.ndim
	}
	if o.kernel != "" {
		cfg.Solver.Kernel = o.kernel
	}
	if o.eta > 0 {
		cfg.Solver.Eta = o.eta
	}
	if o.seed != 0 {
		cfg.InitialConditions.Seed = o.seed
	}
	if o.workers >= 0 {
		cfg.Solver.Workers = o.workers
	}
	if o.repeat < 1 {
		return fmt.Errorf("repeat must be at least 1, got %d", o.repeat)
	}
	// Resolve a time based seed once so repeats and the config snapshot agree
	if cfg.InitialConditions.Seed == 0 {
		cfg.InitialConditions.Seed = time.Now().UnixNano()
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, repeat int) error {
	om, err := telemetry.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer om.Close()

	if err := om.WriteConfig(cfg); err != nil {
		return err
	}

	slog.Info("starting smoothing length computation",
		"ndim", cfg.Solver.NDim,
		"kernel", cfg.Solver.Kernel,
		"eta", cfg.Derived.Eta,
		"neighbour_count", cfg.Derived.NeighbourCount,
		"periodic", cfg.Solver.Periodic,
		"repeat", repeat,
		"output_dir", om.Dir(),
	)

	params := cfg.SolverParams()
	perf := telemetry.NewPerfCollector(repeat)

	var (
		set *particles.Set
		res *smoothing.Result
	)
	for r := 0; r < repeat; r++ {
		perf.StartRun()

		perf.StartPhase(telemetry.PhaseLoad)
		set, err = loadParticles(cfg)
		if err != nil {
			return err
		}

		perf.StartPhase(telemetry.PhaseGridBuild)
		g, err := smoothing.BuildGrid(set.Positions, set.Masses, params)
		if err != nil {
			return err
		}

		perf.StartPhase(telemetry.PhaseSolve)
		res, err = smoothing.Solve(ctx, g, set.Positions, set.Masses, params)
		if errors.Is(err, context.Canceled) {
			slog.Warn("computation interrupted, writing partial result", "run", r)
		} else if err != nil {
			return err
		}

		if r == repeat-1 || ctx.Err() != nil {
			perf.StartPhase(telemetry.PhaseOutput)
			if err := writeResult(om, cfg, set, res); err != nil {
				return err
			}
		}
		perf.EndRun()

		if ctx.Err() != nil {
			break
		}
	}

	ps := perf.Stats().WithThroughput(set.Len())
	slog.Info("perf", "stats", ps)
	if err := om.WritePerf(ps); err != nil {
		return err
	}
	return ctx.Err()
}

func loadParticles(cfg *config.Config) (*particles.Set, error) {
	ic := cfg.InitialConditions
	if ic.Input != "" {
		return particles.ReadCSVFile(ic.Input, cfg.Solver.NDim)
	}
	return particles.Generate(ic.Kind, ic.NX, cfg.Solver.NDim, ic.Mass, ic.Seed)
}

func writeResult(om *telemetry.OutputManager, cfg *config.Config, set *particles.Set, res *smoothing.Result) error {
	stats := telemetry.ComputeSolveStats(res, set.Masses)
	slog.Info("result", "stats", stats)

	if err := om.WriteParticles(set, res); err != nil {
		return err
	}
	if cfg.Output.WriteNeighbours {
		if err := om.WriteNeighbours(res); err != nil {
			return err
		}
	}
	return om.WriteStats(stats)
}
