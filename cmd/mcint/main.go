// Package main is the entry point for the mcint application.
// mcint estimates a definite integral by uniform Monte-Carlo sampling.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/randomizedcoder/mcint/internal/config"
	"github.com/randomizedcoder/mcint/internal/console"
	"github.com/randomizedcoder/mcint/internal/estimator"
	"github.com/randomizedcoder/mcint/internal/integrand"
	"github.com/randomizedcoder/mcint/internal/sampler"
	"github.com/randomizedcoder/mcint/internal/server"
	"github.com/randomizedcoder/mcint/internal/study"
)

// version is set at build time via ldflags.
var version = "dev"

const resultLabel = "integral ="

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration from flags and environment variables
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("mcint starting",
		zap.String("version", version),
		zap.String("integrand", cfg.Integrand),
		zap.Bool("interactive", cfg.Interactive),
		zap.Bool("study", cfg.Study),
		zap.Int("serve_port", cfg.ServePort),
	)

	if cfg.ServePort > 0 {
		return serve(cfg, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return execute(ctx, cfg, logger, os.Stdin, os.Stdout, os.Stderr)
}

// execute runs a single estimate or the convergence study and returns the
// process exit code.
func execute(ctx context.Context, cfg *config.Config, logger *zap.Logger, in io.Reader, out, errOut io.Writer) int {
	if cfg.Interactive {
		if err := prompt(cfg, in, out); err != nil {
			logger.Error("reading input failed", zap.Error(err))
			fmt.Fprintln(errOut, err)
			return 1
		}
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, estimator.ErrInvalidSampleCount) {
			logger.Warn("rejected sample count", zap.Int("samples", cfg.Samples))
		}
		fmt.Fprintln(errOut, err)
		return 1
	}

	if cfg.Study {
		return runStudy(ctx, cfg, logger, out, errOut)
	}

	entry, err := integrand.Lookup(cfg.Integrand)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	s := sampler.NewFromTime()
	if cfg.Seed != 0 {
		s = sampler.New(cfg.Seed)
	}

	res, err := estimator.New(entry.F, s, logger).Estimate(ctx, cfg.Lower, cfg.Upper, cfg.Samples)
	if err != nil {
		logger.Error("estimate failed", zap.Error(err))
		fmt.Fprintln(errOut, err)
		return 1
	}

	logger.Info("estimate complete",
		zap.Float64("a", cfg.Lower),
		zap.Float64("b", cfg.Upper),
		zap.Int("samples", res.Samples),
		zap.Float64("estimate", res.Estimate),
		zap.Float64("std_err", res.StdErr),
		zap.Float64("exact", entry.Integral(cfg.Lower, cfg.Upper)),
		zap.Duration("elapsed", res.Elapsed),
	)

	if err := console.Print(out, resultLabel, res.Estimate); err != nil {
		logger.Error("writing result failed", zap.Error(err))
		return 1
	}
	return 0
}

func prompt(cfg *config.Config, in io.Reader, out io.Writer) error {
	p := console.NewPrompter(in, out)

	var err error
	if cfg.Lower, err = p.Float("left bound: "); err != nil {
		return err
	}
	if cfg.Upper, err = p.Float("right bound: "); err != nil {
		return err
	}
	if cfg.Samples, err = p.Count("sample count: "); err != nil {
		return err
	}
	return nil
}

func runStudy(ctx context.Context, cfg *config.Config, logger *zap.Logger, out, errOut io.Writer) int {
	runner, err := study.New(cfg, logger)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	steps, err := runner.Run(ctx)
	for _, s := range steps {
		fmt.Fprintf(out, "n=%-10d mean=%-20v std_dev=%-12.3g abs_error=%-12.3g elapsed=%v\n",
			s.Samples, s.Mean, s.StdDev, s.AbsError, s.Elapsed)
	}
	if err != nil {
		logger.Error("study failed", zap.Error(err))
		fmt.Fprintln(errOut, err)
		return 1
	}

	fmt.Fprintln(out, "reference =", runner.Reference())
	return 0
}

func serve(cfg *config.Config, logger *zap.Logger) int {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Create cancellable context for coordinated shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.NewServer(cfg.ServePort, cfg, logger)
	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.Error("server failed", zap.Error(err))
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	cancel()

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	logger.Info("mcint stopped")
	return 0
}
