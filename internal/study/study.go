// Package study runs the estimator over an increasing schedule of sample
// counts to show convergence towards the reference integral.
package study

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/randomizedcoder/mcint/internal/config"
	"github.com/randomizedcoder/mcint/internal/estimator"
	"github.com/randomizedcoder/mcint/internal/integrand"
	"github.com/randomizedcoder/mcint/internal/sampler"
)

// DefaultSchedule is the sequence of sample counts studied.
var DefaultSchedule = []int{1_000, 100_000, 10_000_000}

// Step summarises the replicates run at one sample count.
type Step struct {
	Samples    int
	Replicates int

	// Mean and StdDev are taken over the replicate estimates.
	Mean   float64
	StdDev float64
	StdErr float64

	// AbsError is |Mean - Reference|.
	AbsError float64
	Elapsed  time.Duration
}

// Runner drives the convergence study.
type Runner struct {
	cfg       *config.Config
	logger    *zap.Logger
	entry     integrand.Entry
	seed      uint64
	schedule  []int
	reference float64
}

// New creates a Runner for the configured bounds and integrand.
func New(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	entry, err := integrand.Lookup(cfg.Integrand)
	if err != nil {
		return nil, err
	}
	if cfg.Replicates <= 0 {
		return nil, fmt.Errorf("replicates must be positive, got %d", cfg.Replicates)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Runner{
		cfg:       cfg,
		logger:    logger,
		entry:     entry,
		seed:      seed,
		schedule:  DefaultSchedule,
		reference: entry.Integral(cfg.Lower, cfg.Upper),
	}, nil
}

// WithSchedule replaces the sample count schedule.
func (r *Runner) WithSchedule(schedule []int) *Runner {
	r.schedule = schedule
	return r
}

// Reference returns the value the estimates are compared against.
func (r *Runner) Reference() float64 {
	return r.reference
}

// Run executes every step of the schedule, stopping early when ctx is
// cancelled. Completed steps are returned together with any error.
func (r *Runner) Run(ctx context.Context) ([]Step, error) {
	r.logger.Info("study started",
		zap.String("integrand", r.entry.Expr),
		zap.Float64("a", r.cfg.Lower),
		zap.Float64("b", r.cfg.Upper),
		zap.Ints("schedule", r.schedule),
		zap.Int("replicates", r.cfg.Replicates),
		zap.Uint64("seed", r.seed),
		zap.Float64("reference", r.reference),
		zap.Float64("quadrature", integrand.Reference(r.entry.F, r.cfg.Lower, r.cfg.Upper)),
	)

	steps := make([]Step, 0, len(r.schedule))
	for _, n := range r.schedule {
		select {
		case <-ctx.Done():
			r.logger.Info("study stopped", zap.Int("completed_steps", len(steps)))
			return steps, ctx.Err()
		default:
		}

		step, err := r.step(ctx, n)
		if err != nil {
			return steps, err
		}
		steps = append(steps, step)

		r.logger.Info("study step",
			zap.Int("samples", step.Samples),
			zap.Float64("mean", step.Mean),
			zap.Float64("std_dev", step.StdDev),
			zap.Float64("abs_error", step.AbsError),
			zap.Duration("elapsed", step.Elapsed),
		)
	}

	return steps, nil
}

// step runs all replicates at sample count n.
func (r *Runner) step(ctx context.Context, n int) (Step, error) {
	start := time.Now()
	estimates := make([]float64, r.cfg.Replicates)

	for i := range estimates {
		e := estimator.New(r.entry.F, sampler.New(ReplicateSeed(r.seed, i)), r.logger)
		res, err := e.Estimate(ctx, r.cfg.Lower, r.cfg.Upper, n)
		if err != nil {
			return Step{}, fmt.Errorf("step n=%d replicate %d: %w", n, i, err)
		}
		estimates[i] = res.Estimate
	}

	mean, std := stat.MeanStdDev(estimates, nil)
	if len(estimates) < 2 {
		std = 0
	}

	return Step{
		Samples:    n,
		Replicates: len(estimates),
		Mean:       mean,
		StdDev:     std,
		StdErr:     stat.StdErr(std, float64(len(estimates))),
		AbsError:   math.Abs(mean - r.reference),
		Elapsed:    time.Since(start),
	}, nil
}

// ReplicateSeed derives the generator seed of replicate i.
func ReplicateSeed(base uint64, i int) uint64 {
	return base + uint64(i)
}
