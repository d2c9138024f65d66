package study

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/randomizedcoder/mcint/internal/config"
	"github.com/randomizedcoder/mcint/internal/integrand"
)

func testConfig() *config.Config {
	return &config.Config{
		Lower:      0,
		Upper:      1,
		Seed:       42,
		Integrand:  integrand.DefaultName,
		Replicates: 5,
	}
}

func TestRunner_Converges(t *testing.T) {
	r, err := New(testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	r.WithSchedule([]int{1_000, 100_000})

	steps, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.InDelta(t, integrand.Exact(0, 1), r.Reference(), 1e-15)
	for _, s := range steps {
		assert.Equal(t, 5, s.Replicates)
	}
	assert.Less(t, steps[1].StdDev, steps[0].StdDev)
	assert.Less(t, steps[1].AbsError, 0.01)
	assert.Less(t, steps[0].AbsError, 0.1)
}

func TestRunner_Deterministic(t *testing.T) {
	run := func() []Step {
		r, err := New(testConfig(), zaptest.NewLogger(t))
		require.NoError(t, err)
		steps, err := r.WithSchedule([]int{500, 5_000}).Run(context.Background())
		require.NoError(t, err)
		return steps
	}

	s1, s2 := run(), run()
	require.Len(t, s2, len(s1))
	for i := range s1 {
		assert.Equal(t, s1[i].Mean, s2[i].Mean, "step %d", i)
		assert.Equal(t, s1[i].StdDev, s2[i].StdDev, "step %d", i)
	}
}

func TestRunner_SingleReplicate(t *testing.T) {
	cfg := testConfig()
	cfg.Replicates = 1

	r, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	steps, err := r.WithSchedule([]int{100}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, 0.0, steps[0].StdDev)
}

func TestRunner_InvalidSampleCount(t *testing.T) {
	r, err := New(testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	steps, err := r.WithSchedule([]int{100, 0, 1000}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n > 0")
	assert.Len(t, steps, 1)
}

func TestRunner_Cancelled(t *testing.T) {
	r, err := New(testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps, err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, steps)
}

func TestNew_Errors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := testConfig()
	cfg.Integrand = "unknown"
	_, err := New(cfg, logger)
	assert.True(t, errors.Is(err, integrand.ErrUnknownIntegrand))

	cfg = testConfig()
	cfg.Replicates = 0
	_, err = New(cfg, logger)
	assert.Error(t, err)
}

func TestReplicateSeed(t *testing.T) {
	assert.Equal(t, uint64(42), ReplicateSeed(42, 0))
	assert.Equal(t, uint64(45), ReplicateSeed(42, 3))
}
