// Package estimator implements the Monte-Carlo mean-value estimator of a
// definite integral.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/randomizedcoder/mcint/internal/integrand"
)

// ErrInvalidSampleCount is returned when the sample count is not positive.
var ErrInvalidSampleCount = errors.New("invalid sample count")

// ErrInvalidBounds is returned by ValidateBounds for bounds that cannot be
// integrated in float64.
var ErrInvalidBounds = errors.New("invalid bounds")

// cancelCheckInterval is how many samples are drawn between context checks.
const cancelCheckInterval = 1 << 16

// Sampler draws a uniform value from the closed interval between two bounds.
type Sampler interface {
	Sample(low, high float64) float64
}

// Result is the outcome of one estimation.
type Result struct {
	// Estimate is (b - a) times the sample mean of f.
	Estimate float64

	// Samples is the number of points drawn.
	Samples int

	// Mean and Variance describe f over the drawn points.
	Mean     float64
	Variance float64

	// StdErr is the standard error of Estimate.
	StdErr float64

	// Elapsed is the wall time spent sampling.
	Elapsed time.Duration
}

// Estimator integrates a fixed function using a caller-owned sampler.
type Estimator struct {
	f       integrand.Func
	sampler Sampler
	logger  *zap.Logger
}

// New creates an Estimator for f drawing points from s.
func New(f integrand.Func, s Sampler, logger *zap.Logger) *Estimator {
	return &Estimator{
		f:       f,
		sampler: s,
		logger:  logger,
	}
}

// ValidateSampleCount reports ErrInvalidSampleCount for n <= 0.
func ValidateSampleCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: n = %d, want n > 0", ErrInvalidSampleCount, n)
	}
	return nil
}

// ValidateBounds rejects non-finite bounds and intervals whose width
// overflows float64.
func ValidateBounds(a, b float64) error {
	switch {
	case math.IsNaN(a) || math.IsInf(a, 0):
		return fmt.Errorf("%w: a = %v, want a finite value", ErrInvalidBounds, a)
	case math.IsNaN(b) || math.IsInf(b, 0):
		return fmt.Errorf("%w: b = %v, want a finite value", ErrInvalidBounds, b)
	case math.IsInf(b-a, 0):
		return fmt.Errorf("%w: width b - a overflows for a = %v, b = %v", ErrInvalidBounds, a, b)
	}
	return nil
}

// Estimate approximates the integral of f over [a, b] from n uniform samples.
// Bounds may be given in either order; the sign of the result follows b - a.
// Nothing is sampled when n is invalid.
func (e *Estimator) Estimate(ctx context.Context, a, b float64, n int) (Result, error) {
	if err := ValidateSampleCount(n); err != nil {
		return Result{}, err
	}

	start := time.Now()

	var mean, m2 float64
	for i := 1; i <= n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, fmt.Errorf("estimate cancelled after %d of %d samples: %w", i-1, n, err)
			}
		}

		y := e.f(e.sampler.Sample(a, b))
		delta := y - mean
		mean += delta / float64(i)
		m2 += delta * (y - mean)
	}

	width := b - a
	res := Result{
		Estimate: width * mean,
		Samples:  n,
		Mean:     mean,
		Elapsed:  time.Since(start),
	}
	if n > 1 {
		res.Variance = m2 / float64(n-1)
		res.StdErr = math.Abs(width) * math.Sqrt(res.Variance/float64(n))
	}

	e.logger.Debug("sampling done",
		zap.Float64("a", a),
		zap.Float64("b", b),
		zap.Int("samples", n),
		zap.Float64("estimate", res.Estimate),
		zap.Float64("std_err", res.StdErr),
		zap.Duration("elapsed", res.Elapsed),
	)

	return res, nil
}

// EstimateSum computes ((b - a) / n) * sum(f(x_i)) with a plain running sum.
func (e *Estimator) EstimateSum(a, b float64, n int) (float64, error) {
	if err := ValidateSampleCount(n); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := 1; i <= n; i++ {
		sum += e.f(e.sampler.Sample(a, b))
	}
	return ((b - a) / float64(n)) * sum, nil
}
