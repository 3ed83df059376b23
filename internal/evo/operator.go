package evo

import (
	"math/rand"

	"github.com/yoavsyo/optic-classifier/internal/optics"
)

// Selector chooses a parent mask from the ranked, successfully evaluated
// portion of the population.
type Selector interface {
	Name() string
	Pick(rng *rand.Rand, ranked []ScoredMask) (optics.Mask, error)
}

// Crossover combines two parent masks into one offspring.
type Crossover interface {
	Name() string
	Combine(rng *rand.Rand, a, b optics.Mask) optics.Mask
}

// Mutator perturbs a mask's coefficients. Each coefficient is mutated
// independently with the given probability; strength scales the
// perturbation. Implementations must return masks inside the domain.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, m optics.Mask, prob, strength float64) optics.Mask
}

// Initializer draws a fresh random mask for generation zero.
type Initializer interface {
	Name() string
	Random(rng *rand.Rand, w, h int, domain optics.Domain) (optics.Mask, error)
}
