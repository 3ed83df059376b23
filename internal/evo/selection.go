package evo

import (
	"fmt"
	"math/rand"

	"github.com/yoavsyo/optic-classifier/internal/optics"
)

// RouletteSelector implements fitness-proportionate selection. When any
// fitness is non-positive the values are shifted so the worst individual
// keeps a tenth of the fitness span as selection mass; a population with
// zero total mass degrades to a uniform draw.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Pick(rng *rand.Rand, ranked []ScoredMask) (optics.Mask, error) {
	if rng == nil {
		return optics.Mask{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return optics.Mask{}, fmt.Errorf("no candidates to select from")
	}

	shift := 0.0
	if worst := ranked[len(ranked)-1].Fitness; worst <= 0 {
		span := ranked[0].Fitness - worst
		shift = -worst + 0.1*span
	}
	total := 0.0
	for _, item := range ranked {
		total += item.Fitness + shift
	}
	if total <= 0 {
		return ranked[rng.Intn(len(ranked))].Mask, nil
	}

	pick := rng.Float64() * total
	acc := 0.0
	for _, item := range ranked {
		acc += item.Fitness + shift
		if pick <= acc {
			return item.Mask, nil
		}
	}
	return ranked[len(ranked)-1].Mask, nil
}

// TournamentSelector samples Size candidates uniformly and keeps the best.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Pick(rng *rand.Rand, ranked []ScoredMask) (optics.Mask, error) {
	if rng == nil {
		return optics.Mask{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return optics.Mask{}, fmt.Errorf("no candidates to select from")
	}

	size := s.Size
	if size <= 0 {
		size = 3
	}
	if size > len(ranked) {
		size = len(ranked)
	}

	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < size; i++ {
		candidate := ranked[rng.Intn(len(ranked))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Mask, nil
}

func SelectorFromName(name string) (Selector, error) {
	switch name {
	case "", "tournament":
		return TournamentSelector{Size: 3}, nil
	case "roulette":
		return RouletteSelector{}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %s", name)
	}
}
