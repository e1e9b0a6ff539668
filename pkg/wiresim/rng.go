package wiresim

import "math/rand"

// RNG is the single deterministic source of randomness for one simulation
// run. Every draw a Node, Channel, or Distribution makes goes through the
// same *RNG instance, so two runs constructed with the same seed and the
// same sequence of scheduled events produce bit-identical draws.
type RNG struct {
	r *rand.Rand
}

// NewRNG builds an RNG seeded deterministically from seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform draw in [0, 1).
func (g *RNG) Float64() float64 { return g.r.Float64() }

// ExpFloat64 returns a draw from the standard exponential distribution
// (rate 1, mean 1); callers scale by the desired mean.
func (g *RNG) ExpFloat64() float64 { return g.r.ExpFloat64() }
