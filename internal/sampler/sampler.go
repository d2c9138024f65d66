// Package sampler draws uniformly distributed reals from a generator the
// caller owns.
package sampler

import (
	"math/rand/v2"
	"time"
)

// unitScale maps a 53-bit integer onto [0, 1] with both ends reachable.
const unitScale = 1.0 / float64(1<<53-1)

// Uniform samples the closed interval between two bounds.
type Uniform struct {
	rng   *rand.Rand
	draws uint64
}

// New creates a Uniform seeded deterministically from seed.
func New(seed uint64) *Uniform {
	return NewWithRng(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewFromTime creates a Uniform seeded from the current time.
func NewFromTime() *Uniform {
	now := uint64(time.Now().UnixNano())
	return NewWithRng(rand.New(rand.NewPCG(now, now>>32)))
}

// NewWithRng creates a Uniform backed by a custom random source (for testing).
func NewWithRng(rng *rand.Rand) *Uniform {
	return &Uniform{rng: rng}
}

// Sample returns a value drawn uniformly from [min(low, high), max(low, high)].
func (u *Uniform) Sample(low, high float64) float64 {
	u.draws++
	return InRange(u.rng, low, high)
}

// Draws returns how many samples have been taken.
func (u *Uniform) Draws() uint64 {
	return u.draws
}

// InRange returns a uniform value in the closed interval spanned by low and
// high, in either order. Each draw consumes 53 bits from rng.
func InRange(rng *rand.Rand, low, high float64) float64 {
	if low > high {
		low, high = high, low
	}
	unit := float64(rng.Uint64()>>11) * unitScale
	if low == high {
		return low
	}

	// Interpolating the endpoints never forms high - low, which overflows
	// for bounds of opposite sign near the float64 limits.
	x := low*(1-unit) + high*unit
	switch {
	case x < low:
		return low
	case x > high:
		return high
	}
	return x
}
