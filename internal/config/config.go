// Package config handles application configuration from CLI flags and environment variables.
package config

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"go.uber.org/multierr"

	"github.com/randomizedcoder/mcint/internal/estimator"
	"github.com/randomizedcoder/mcint/internal/integrand"
)

// Config holds all application configuration.
type Config struct {
	// Lower and Upper are the integration bounds, in any order.
	Lower float64
	Upper float64

	// Samples is the number of uniform points drawn per estimate.
	Samples int

	// Seed initialises the generator. Zero seeds from the clock.
	Seed uint64

	// Integrand names the function to integrate.
	Integrand string

	// Study runs the convergence study instead of a single estimate.
	Study bool

	// Replicates is the number of independent runs per study step.
	Replicates int

	// ServePort starts the HTTP estimate endpoint when non-zero.
	ServePort int

	// Interactive is set when no bounds or sample count were supplied,
	// so they must be prompted for.
	Interactive bool
}

// Default values.
const (
	DefaultLower      = 0.0
	DefaultUpper      = 1.0
	DefaultSamples    = 100000
	DefaultReplicates = 5
)

// Environment variable names.
const (
	EnvLower      = "MCINT_LOWER"
	EnvUpper      = "MCINT_UPPER"
	EnvSamples    = "MCINT_SAMPLES"
	EnvSeed       = "MCINT_SEED"
	EnvIntegrand  = "MCINT_INTEGRAND"
	EnvReplicates = "MCINT_REPLICATES"
	EnvServePort  = "MCINT_SERVE_PORT"
)

// Load parses configuration from flags and environment variables.
// Environment variables override CLI flag defaults.
func Load() *Config {
	cfg := &Config{}

	flag.Float64Var(&cfg.Lower, "a", DefaultLower,
		"Left integration bound (env: "+EnvLower+")")
	flag.Float64Var(&cfg.Upper, "b", DefaultUpper,
		"Right integration bound (env: "+EnvUpper+")")
	flag.IntVar(&cfg.Samples, "n", DefaultSamples,
		"Number of random samples (env: "+EnvSamples+")")
	flag.Uint64Var(&cfg.Seed, "seed", 0,
		"Generator seed, 0 seeds from the clock (env: "+EnvSeed+")")
	flag.StringVar(&cfg.Integrand, "f", integrand.DefaultName,
		fmt.Sprintf("Integrand, one of %v (env: %s)", integrand.Names(), EnvIntegrand))
	flag.BoolVar(&cfg.Study, "study", false,
		"Run the convergence study over increasing sample counts")
	flag.IntVar(&cfg.Replicates, "replicates", DefaultReplicates,
		"Independent runs per study step (env: "+EnvReplicates+")")
	flag.IntVar(&cfg.ServePort, "serve-port", 0,
		"Serve /estimate, /health and /ready on this port (env: "+EnvServePort+")")

	flag.Parse()

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a", "b", "n":
			explicit = true
		}
	})

	if cfg.applyEnvOverrides() {
		explicit = true
	}
	cfg.Interactive = !explicit && !cfg.Study && cfg.ServePort == 0

	return cfg
}

// LoadWithDefaults returns a Config with default values without parsing flags.
// Useful for testing.
func LoadWithDefaults() *Config {
	cfg := &Config{
		Lower:      DefaultLower,
		Upper:      DefaultUpper,
		Samples:    DefaultSamples,
		Integrand:  integrand.DefaultName,
		Replicates: DefaultReplicates,
	}
	cfg.applyEnvOverrides()
	return cfg
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var err error

	if math.IsNaN(c.Lower) || math.IsInf(c.Lower, 0) {
		err = multierr.Append(err, fmt.Errorf("left bound must be finite, got %v", c.Lower))
	}
	if math.IsNaN(c.Upper) || math.IsInf(c.Upper, 0) {
		err = multierr.Append(err, fmt.Errorf("right bound must be finite, got %v", c.Upper))
	}
	if math.IsInf(c.Upper-c.Lower, 0) {
		err = multierr.Append(err, estimator.ValidateBounds(c.Lower, c.Upper))
	}
	err = multierr.Append(err, estimator.ValidateSampleCount(c.Samples))
	if _, lookupErr := integrand.Lookup(c.Integrand); lookupErr != nil {
		err = multierr.Append(err, lookupErr)
	}
	if c.Replicates <= 0 {
		err = multierr.Append(err, fmt.Errorf("replicates must be positive, got %d", c.Replicates))
	}
	if c.ServePort < 0 || c.ServePort > 65535 {
		err = multierr.Append(err, fmt.Errorf("serve port out of range: %d", c.ServePort))
	}

	return err
}

// applyEnvOverrides reports whether a bound or the sample count came from
// the environment.
func (c *Config) applyEnvOverrides() bool {
	explicit := false

	if v := os.Getenv(EnvLower); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Lower = f
			explicit = true
		}
	}

	if v := os.Getenv(EnvUpper); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Upper = f
			explicit = true
		}
	}

	if v := os.Getenv(EnvSamples); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			c.Samples = i
			explicit = true
		}
	}

	if v := os.Getenv(EnvSeed); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = u
		}
	}

	if v := os.Getenv(EnvIntegrand); v != "" {
		if _, err := integrand.Lookup(v); err == nil {
			c.Integrand = v
		}
	}

	if v := os.Getenv(EnvReplicates); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.Replicates = i
		}
	}

	if v := os.Getenv(EnvServePort); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 && i < 65536 {
			c.ServePort = i
		}
	}

	return explicit
}
