package evo

import (
	"fmt"
	"math/rand"

	"github.com/yoavsyo/optic-classifier/internal/optics"
)

// UniformCrossover picks each offspring coefficient from either parent
// with equal probability.
type UniformCrossover struct{}

func (UniformCrossover) Name() string {
	return "uniform"
}

func (UniformCrossover) Combine(rng *rand.Rand, a, b optics.Mask) optics.Mask {
	child := a.Clone()
	for y := range child.Coeffs {
		for x := range child.Coeffs[y] {
			if rng.Intn(2) == 1 {
				child.Coeffs[y][x] = b.Coeffs[y][x]
			}
		}
	}
	return child
}

// BlockCrossover splits the plane at a random row or column: the offspring
// takes parent a on one side of the cut and parent b on the other.
type BlockCrossover struct{}

func (BlockCrossover) Name() string {
	return "block"
}

func (BlockCrossover) Combine(rng *rand.Rand, a, b optics.Mask) optics.Mask {
	child := a.Clone()
	h, w := child.Height(), child.Width()
	if rng.Intn(2) == 0 {
		// Horizontal cut: rows below the split come from b.
		split := 1 + rng.Intn(maxInt(h-1, 1))
		for y := split; y < h; y++ {
			copy(child.Coeffs[y], b.Coeffs[y])
		}
	} else {
		// Vertical cut: columns right of the split come from b.
		split := 1 + rng.Intn(maxInt(w-1, 1))
		for y := 0; y < h; y++ {
			copy(child.Coeffs[y][split:], b.Coeffs[y][split:])
		}
	}
	return child
}

func CrossoverFromName(name string) (Crossover, error) {
	switch name {
	case "", "uniform":
		return UniformCrossover{}, nil
	case "block":
		return BlockCrossover{}, nil
	default:
		return nil, fmt.Errorf("unsupported crossover strategy: %s", name)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
