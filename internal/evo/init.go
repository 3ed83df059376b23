package evo

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/yoavsyo/optic-classifier/internal/optics"
)

// RandomPhaseInit draws unit-modulus coefficients with uniform random
// phase in [0, 2pi) — the random phase mask the original experiment
// started from. For the amplitude domain it falls back to uniform
// transmittance.
type RandomPhaseInit struct{}

func (RandomPhaseInit) Name() string {
	return "random_phase"
}

func (RandomPhaseInit) Random(rng *rand.Rand, w, h int, domain optics.Domain) (optics.Mask, error) {
	if w <= 0 || h <= 0 {
		return optics.Mask{}, fmt.Errorf("mask dimensions must be positive, got %dx%d", w, h)
	}
	coeffs := make([][]complex128, h)
	for y := range coeffs {
		coeffs[y] = make([]complex128, w)
		for x := range coeffs[y] {
			switch domain {
			case optics.DomainAmplitude:
				coeffs[y][x] = complex(rng.Float64(), 0)
			default:
				coeffs[y][x] = cmplx.Exp(complex(0, 2*math.Pi*rng.Float64()))
			}
		}
	}
	mask, err := optics.NewMask(coeffs, domain)
	if err != nil {
		return optics.Mask{}, err
	}
	return mask.Clamp(), nil
}

// UniformAmplitudeInit draws real transmittance uniformly in [0,1] with
// zero phase; phase-only masks degrade to identity plus clamping.
type UniformAmplitudeInit struct{}

func (UniformAmplitudeInit) Name() string {
	return "uniform_amplitude"
}

func (UniformAmplitudeInit) Random(rng *rand.Rand, w, h int, domain optics.Domain) (optics.Mask, error) {
	if w <= 0 || h <= 0 {
		return optics.Mask{}, fmt.Errorf("mask dimensions must be positive, got %dx%d", w, h)
	}
	coeffs := make([][]complex128, h)
	for y := range coeffs {
		coeffs[y] = make([]complex128, w)
		for x := range coeffs[y] {
			coeffs[y][x] = complex(rng.Float64(), 0)
		}
	}
	mask, err := optics.NewMask(coeffs, domain)
	if err != nil {
		return optics.Mask{}, err
	}
	return mask.Clamp(), nil
}

// IdentityInit seeds every individual with the all-ones mask; useful as a
// deterministic baseline when only mutation should explore.
type IdentityInit struct{}

func (IdentityInit) Name() string {
	return "identity"
}

func (IdentityInit) Random(_ *rand.Rand, w, h int, domain optics.Domain) (optics.Mask, error) {
	return optics.IdentityMask(w, h, domain)
}

func InitializerFromName(name string) (Initializer, error) {
	switch name {
	case "", "random_phase":
		return RandomPhaseInit{}, nil
	case "uniform_amplitude":
		return UniformAmplitudeInit{}, nil
	case "identity":
		return IdentityInit{}, nil
	default:
		return nil, fmt.Errorf("unsupported initializer: %s", name)
	}
}
