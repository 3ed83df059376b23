package evo

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/yoavsyo/optic-classifier/internal/optics"
)

// GaussianMutator perturbs selected coefficients with additive Gaussian
// noise: phase noise with standard deviation strength*pi, and for
// non-phase domains amplitude noise with standard deviation strength.
// The result is clamped back into the mask domain.
type GaussianMutator struct{}

func (GaussianMutator) Name() string {
	return "gaussian"
}

func (GaussianMutator) Mutate(rng *rand.Rand, m optics.Mask, prob, strength float64) optics.Mask {
	out := m.Clone()
	for y := range out.Coeffs {
		for x := range out.Coeffs[y] {
			if rng.Float64() >= prob {
				continue
			}
			c := out.Coeffs[y][x]
			switch m.Domain {
			case optics.DomainPhaseOnly:
				phase := cmplx.Phase(c) + rng.NormFloat64()*strength*math.Pi
				out.Coeffs[y][x] = cmplx.Exp(complex(0, phase))
			case optics.DomainAmplitude:
				out.Coeffs[y][x] = complex(real(c)+rng.NormFloat64()*strength, 0)
			default:
				out.Coeffs[y][x] = c + complex(rng.NormFloat64()*strength, rng.NormFloat64()*strength)
			}
		}
	}
	return out.Clamp()
}

// ResetMutator redraws selected coefficients uniformly from the mask
// domain, ignoring their previous value. Strength is unused.
type ResetMutator struct{}

func (ResetMutator) Name() string {
	return "reset"
}

func (ResetMutator) Mutate(rng *rand.Rand, m optics.Mask, prob, _ float64) optics.Mask {
	out := m.Clone()
	for y := range out.Coeffs {
		for x := range out.Coeffs[y] {
			if rng.Float64() >= prob {
				continue
			}
			switch m.Domain {
			case optics.DomainPhaseOnly:
				out.Coeffs[y][x] = cmplx.Exp(complex(0, 2*math.Pi*rng.Float64()))
			case optics.DomainAmplitude:
				out.Coeffs[y][x] = complex(rng.Float64(), 0)
			default:
				out.Coeffs[y][x] = complex(2*rng.Float64()-1, 2*rng.Float64()-1)
			}
		}
	}
	return out.Clamp()
}

func MutatorFromName(name string) (Mutator, error) {
	switch name {
	case "", "gaussian":
		return GaussianMutator{}, nil
	case "reset":
		return ResetMutator{}, nil
	default:
		return nil, fmt.Errorf("unsupported mutation strategy: %s", name)
	}
}
