package config

import (
	"errors"
	"math"
	"os"
	"testing"

	"go.uber.org/multierr"

	"github.com/randomizedcoder/mcint/internal/estimator"
	"github.com/randomizedcoder/mcint/internal/integrand"
)

var allEnv = []string{
	EnvLower, EnvUpper, EnvSamples, EnvSeed,
	EnvIntegrand, EnvReplicates, EnvServePort,
}

func clearEnv() {
	for _, k := range allEnv {
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	// Clear any env vars that might interfere
	clearEnv()

	cfg := LoadWithDefaults()

	if cfg.Lower != DefaultLower {
		t.Errorf("Lower = %v, want %v", cfg.Lower, DefaultLower)
	}
	if cfg.Upper != DefaultUpper {
		t.Errorf("Upper = %v, want %v", cfg.Upper, DefaultUpper)
	}
	if cfg.Samples != DefaultSamples {
		t.Errorf("Samples = %d, want %d", cfg.Samples, DefaultSamples)
	}
	if cfg.Integrand != integrand.DefaultName {
		t.Errorf("Integrand = %q, want %q", cfg.Integrand, integrand.DefaultName)
	}
	if cfg.Replicates != DefaultReplicates {
		t.Errorf("Replicates = %d, want %d", cfg.Replicates, DefaultReplicates)
	}
	if cfg.Seed != 0 || cfg.ServePort != 0 {
		t.Errorf("Seed = %d, ServePort = %d, want zero", cfg.Seed, cfg.ServePort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		check    func(*Config) bool
		desc     string
	}{
		{
			name:     "lower override",
			envKey:   EnvLower,
			envValue: "-2.5",
			check:    func(c *Config) bool { return c.Lower == -2.5 },
			desc:     "Lower should be -2.5",
		},
		{
			name:     "upper override",
			envKey:   EnvUpper,
			envValue: "10",
			check:    func(c *Config) bool { return c.Upper == 10 },
			desc:     "Upper should be 10",
		},
		{
			name:     "samples override",
			envKey:   EnvSamples,
			envValue: "500",
			check:    func(c *Config) bool { return c.Samples == 500 },
			desc:     "Samples should be 500",
		},
		{
			name:     "zero samples kept for validation",
			envKey:   EnvSamples,
			envValue: "0",
			check:    func(c *Config) bool { return c.Samples == 0 },
			desc:     "Samples should be 0",
		},
		{
			name:     "seed override",
			envKey:   EnvSeed,
			envValue: "42",
			check:    func(c *Config) bool { return c.Seed == 42 },
			desc:     "Seed should be 42",
		},
		{
			name:     "integrand override",
			envKey:   EnvIntegrand,
			envValue: "sin",
			check:    func(c *Config) bool { return c.Integrand == "sin" },
			desc:     "Integrand should be sin",
		},
		{
			name:     "unknown integrand ignored",
			envKey:   EnvIntegrand,
			envValue: "tan",
			check:    func(c *Config) bool { return c.Integrand == integrand.DefaultName },
			desc:     "Integrand should remain default",
		},
		{
			name:     "invalid lower ignored",
			envKey:   EnvLower,
			envValue: "left",
			check:    func(c *Config) bool { return c.Lower == DefaultLower },
			desc:     "Lower should remain default",
		},
		{
			name:     "negative seed ignored",
			envKey:   EnvSeed,
			envValue: "-1",
			check:    func(c *Config) bool { return c.Seed == 0 },
			desc:     "Seed should remain zero",
		},
		{
			name:     "zero replicates ignored",
			envKey:   EnvReplicates,
			envValue: "0",
			check:    func(c *Config) bool { return c.Replicates == DefaultReplicates },
			desc:     "Replicates should remain default for zero",
		},
		{
			name:     "invalid port ignored",
			envKey:   EnvServePort,
			envValue: "99999",
			check:    func(c *Config) bool { return c.ServePort == 0 },
			desc:     "ServePort should remain zero for out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()

			// Set the test env var
			os.Setenv(tt.envKey, tt.envValue)
			defer os.Unsetenv(tt.envKey)

			cfg := LoadWithDefaults()

			if !tt.check(cfg) {
				t.Errorf("%s failed: %s", tt.name, tt.desc)
			}
		})
	}
}

func TestApplyEnvOverrides_Explicit(t *testing.T) {
	clearEnv()
	cfg := &Config{}
	if cfg.applyEnvOverrides() {
		t.Error("applyEnvOverrides() = true with no env set")
	}

	os.Setenv(EnvSeed, "7")
	defer os.Unsetenv(EnvSeed)
	if cfg.applyEnvOverrides() {
		t.Error("applyEnvOverrides() = true when only the seed is set")
	}

	os.Setenv(EnvUpper, "3")
	defer os.Unsetenv(EnvUpper)
	if !cfg.applyEnvOverrides() {
		t.Error("applyEnvOverrides() = false with upper bound set")
	}
}

func TestValidate(t *testing.T) {
	clearEnv()

	t.Run("invalid sample count", func(t *testing.T) {
		cfg := LoadWithDefaults()
		cfg.Samples = 0

		err := cfg.Validate()
		if !errors.Is(err, estimator.ErrInvalidSampleCount) {
			t.Errorf("Validate() = %v, want ErrInvalidSampleCount", err)
		}
	})

	t.Run("width overflow", func(t *testing.T) {
		cfg := LoadWithDefaults()
		cfg.Lower, cfg.Upper = -1e308, 1e308

		err := cfg.Validate()
		if !errors.Is(err, estimator.ErrInvalidBounds) {
			t.Errorf("Validate() = %v, want ErrInvalidBounds", err)
		}
	})

	t.Run("aggregates all problems", func(t *testing.T) {
		cfg := &Config{
			Lower:      math.NaN(),
			Upper:      math.Inf(1),
			Samples:    -1,
			Integrand:  "nope",
			Replicates: 0,
			ServePort:  70000,
		}

		err := cfg.Validate()
		if got := len(multierr.Errors(err)); got != 6 {
			t.Errorf("Validate() returned %d errors, want 6: %v", got, err)
		}
		if !errors.Is(err, integrand.ErrUnknownIntegrand) {
			t.Errorf("Validate() = %v, want ErrUnknownIntegrand in chain", err)
		}
	})
}
