package per

import (
	"math"

	"github.com/pkg/errors"

	"github.com/cartridge/replay/pkg/sumtree"
)

const (
	// DefaultBetaIncrement is added to beta after every sampled batch.
	DefaultBetaIncrement = 1e-3
	// DefaultEpsilon keeps a perfectly predicted entry sampleable.
	DefaultEpsilon = 1e-6

	minProbability = 1e-12
)

// Config holds the parameters fixed at creation time.
type Config struct {
	Capacity      int     // number of slots, a power of two
	Alpha         float64 // priority exponent in [0, 1]
	Beta          float64 // initial importance-sampling exponent in [0, 1]
	BetaIncrement float64 // per-batch beta annealing step; DefaultBetaIncrement when 0
	Epsilon       float64 // added to |error| before exponentiation; DefaultEpsilon when 0
}

func (c Config) withDefaults() Config {
	if c.BetaIncrement == 0 {
		c.BetaIncrement = DefaultBetaIncrement
	}
	if c.Epsilon == 0 {
		c.Epsilon = DefaultEpsilon
	}
	return c
}

// Validate checks the exponents and steps. Capacity is checked by the
// underlying sum tree.
func (c Config) Validate() error {
	c = c.withDefaults()
	if !inUnitInterval(c.Alpha) {
		return errors.Wrapf(sumtree.ErrInvalidArgument, "alpha must be in [0, 1], got %v", c.Alpha)
	}
	if !inUnitInterval(c.Beta) {
		return errors.Wrapf(sumtree.ErrInvalidArgument, "beta must be in [0, 1], got %v", c.Beta)
	}
	if c.BetaIncrement < 0 || math.IsNaN(c.BetaIncrement) {
		return errors.Wrapf(sumtree.ErrInvalidArgument, "beta increment must be non-negative, got %v", c.BetaIncrement)
	}
	if !(c.Epsilon > 0) {
		return errors.Wrapf(sumtree.ErrInvalidArgument, "epsilon must be positive, got %v", c.Epsilon)
	}
	return nil
}

func inUnitInterval(x float64) bool {
	return x >= 0 && x <= 1
}
