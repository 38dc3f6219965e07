package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/config"
	"github.com/born-ml/born-optim/internal/optim"
	"github.com/born-ml/born-optim/internal/record"
)

func runTrain(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML run configuration (defaults apply when empty)")
	kind := fs.String("optimizer", "", "Optimizer kind: adagrad, sgd or adam")
	steps := fs.Int("steps", 0, "Number of optimizer steps")
	lr := fs.Float64("lr", 0, "Learning rate")
	workers := fs.Int("workers", -1, "Parallel workers (0 = all CPUs, 1 = sequential)")
	out := fs.String("out", "", "Record output path")
	format := fs.String("format", "", "Record format: json, bin, proto or sqlite (default: from -out extension)")
	resume := fs.Bool("resume", false, "Load the optimizer record at -out before training")
	logEvery := fs.Int("log-every", 10, "Log the loss every N steps")
	verbose := fs.Bool("v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *kind != "" {
		cfg.Optimizer.Kind = *kind
	}
	if *steps > 0 {
		cfg.Training.Steps = *steps
	}
	if *lr > 0 {
		cfg.Training.LearningRate = *lr
	}
	if *workers >= 0 {
		cfg.Training.Workers = *workers
	}
	if *out != "" {
		cfg.Record.Path = *out
		cfg.Record.Format = ""
	}
	if *format != "" {
		cfg.Record.Format = record.Format(*format)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(stderr, *verbose)
	backend := cpu.New()
	problem := newLeastSquares(cfg.Training, backend)

	optimizer, err := newOptimizer(cfg, backend, logger)
	if err != nil {
		return err
	}

	recordFormat, err := cfg.Record.ResolvedFormat()
	if err != nil {
		return err
	}
	recorder, err := record.RecorderFor(recordFormat)
	if err != nil {
		return err
	}

	if *resume {
		rec, err := recorder.Load(cfg.Record.Path)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if err := optimizer.LoadRecord(rec); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		logger.Info("resumed optimizer state", "path", cfg.Record.Path, "items", rec.Len())
	}

	logger.Info("training",
		"optimizer", cfg.Optimizer.Kind,
		"steps", cfg.Training.Steps,
		"lr", cfg.Training.LearningRate,
		"features", fmt.Sprintf("%dx%d", cfg.Training.InFeatures, cfg.Training.OutFeatures),
		"batch", cfg.Training.BatchSize)

	var loss float64
	for step := 1; step <= cfg.Training.Steps; step++ {
		var grads *optim.GradientsParams[float32, *cpu.CPUBackend]
		loss, grads, err = problem.gradients()
		if err != nil {
			return err
		}
		if err := optimizer.Step(cfg.Training.LearningRate, problem, grads); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if *logEvery > 0 && (step%*logEvery == 0 || step == 1) {
			logger.Info("step", "step", step, "loss", loss)
		}
	}
	final, _, err := problem.gradients()
	if err != nil {
		return err
	}

	rec, err := optimizer.ToRecord()
	if err != nil {
		return err
	}
	if err := recorder.Save(rec, cfg.Record.Path); err != nil {
		return err
	}
	logger.Info("saved optimizer record", "path", cfg.Record.Path, "format", recordFormat, "items", rec.Len())

	fmt.Fprintf(stdout, "final loss %.6g after %d steps (%s)\n", final, cfg.Training.Steps, cfg.Optimizer.Kind)
	return nil
}

// newOptimizer builds the optimizer named by cfg.Optimizer.Kind.
func newOptimizer(cfg *config.Config, backend *cpu.CPUBackend, logger *slog.Logger) (optim.Optimizer[float32, *cpu.CPUBackend], error) {
	opts := []optim.Option{
		optim.WithParallel(cfg.Training.Parallel()),
		optim.WithLogger(logger),
	}

	switch cfg.Optimizer.Kind {
	case optim.AdaGradName:
		return optim.NewAdaGrad[float32](cfg.Optimizer.AdaGradConfig(), backend, opts...)
	case optim.SGDName:
		return optim.NewSGD[float32](cfg.Optimizer.SGDConfig(), backend, opts...)
	case optim.AdamName:
		return optim.NewAdam[float32](cfg.Optimizer.AdamConfig(), backend, opts...)
	default:
		return nil, fmt.Errorf("%w: optimizer kind %q", config.ErrInvalid, cfg.Optimizer.Kind)
	}
}
