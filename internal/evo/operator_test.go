package evo

import (
	"math"
	"math/cmplx"
	"math/rand"
	"reflect"
	"testing"

	"github.com/yoavsyo/optic-classifier/internal/optics"
)

func testMask(t *testing.T, value complex128, w, h int, domain optics.Domain) optics.Mask {
	t.Helper()
	coeffs := make([][]complex128, h)
	for y := range coeffs {
		coeffs[y] = make([]complex128, w)
		for x := range coeffs[y] {
			coeffs[y][x] = value
		}
	}
	m, err := optics.NewMask(coeffs, domain)
	if err != nil {
		t.Fatalf("new mask: %v", err)
	}
	return m
}

func TestStrategyFactories(t *testing.T) {
	if s, err := SelectorFromName(""); err != nil || s.Name() != "tournament" {
		t.Fatalf("default selector: %v %v", s, err)
	}
	if s, err := SelectorFromName("roulette"); err != nil || s.Name() != "roulette" {
		t.Fatalf("roulette selector: %v %v", s, err)
	}
	if _, err := SelectorFromName("rank"); err == nil {
		t.Fatal("expected error for unknown selector")
	}

	if c, err := CrossoverFromName(""); err != nil || c.Name() != "uniform" {
		t.Fatalf("default crossover: %v %v", c, err)
	}
	if c, err := CrossoverFromName("block"); err != nil || c.Name() != "block" {
		t.Fatalf("block crossover: %v %v", c, err)
	}
	if _, err := CrossoverFromName("arith"); err == nil {
		t.Fatal("expected error for unknown crossover")
	}

	if m, err := MutatorFromName(""); err != nil || m.Name() != "gaussian" {
		t.Fatalf("default mutator: %v %v", m, err)
	}
	if m, err := MutatorFromName("reset"); err != nil || m.Name() != "reset" {
		t.Fatalf("reset mutator: %v %v", m, err)
	}
	if _, err := MutatorFromName("swap"); err == nil {
		t.Fatal("expected error for unknown mutator")
	}

	if i, err := InitializerFromName(""); err != nil || i.Name() != "random_phase" {
		t.Fatalf("default initializer: %v %v", i, err)
	}
	if i, err := InitializerFromName("identity"); err != nil || i.Name() != "identity" {
		t.Fatalf("identity initializer: %v %v", i, err)
	}
	if _, err := InitializerFromName("zeros"); err == nil {
		t.Fatal("expected error for unknown initializer")
	}
}

func TestTournamentSelectorPrefersFit(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ranked := []ScoredMask{
		{Mask: testMask(t, 1, 2, 2, optics.DomainPhaseOnly), Fitness: 0.9},
		{Mask: testMask(t, -1, 2, 2, optics.DomainPhaseOnly), Fitness: 0.1},
	}

	wins := 0
	for i := 0; i < 200; i++ {
		picked, err := TournamentSelector{Size: 2}.Pick(rng, ranked)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if picked.Coeffs[0][0] == 1 {
			wins++
		}
	}
	// With tournament size 2 the better mask wins 3 of 4 draws in
	// expectation; 200 trials keep the bound loose.
	if wins < 120 {
		t.Fatalf("fit individual won only %d of 200 tournaments", wins)
	}

	if _, err := (TournamentSelector{}).Pick(rng, nil); err == nil {
		t.Fatal("expected error for empty candidate pool")
	}
	if _, err := (TournamentSelector{}).Pick(nil, ranked); err == nil {
		t.Fatal("expected error for nil rng")
	}
}

func TestRouletteSelectorHandlesNonPositiveFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ranked := []ScoredMask{
		{Mask: testMask(t, 1, 2, 2, optics.DomainPhaseOnly), Fitness: 0},
		{Mask: testMask(t, -1, 2, 2, optics.DomainPhaseOnly), Fitness: -0.5},
	}

	firstWins, secondWins := 0, 0
	for i := 0; i < 200; i++ {
		picked, err := RouletteSelector{}.Pick(rng, ranked)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if picked.Coeffs[0][0] == 1 {
			firstWins++
		} else {
			secondWins++
		}
	}
	// The worst individual keeps a tenth of the span as mass, so it wins
	// roughly one draw in twelve here. It must not be starved to zero.
	if secondWins < 3 {
		t.Fatalf("roulette starved the worst candidate: first=%d second=%d", firstWins, secondWins)
	}
	if firstWins <= secondWins {
		t.Fatalf("roulette lost proportionality: first=%d second=%d", firstWins, secondWins)
	}
}

func TestUniformCrossoverMixesParents(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := testMask(t, 1, 6, 6, optics.DomainComplex)
	b := testMask(t, complex(0, 1), 6, 6, optics.DomainComplex)

	child := UniformCrossover{}.Combine(rng, a, b)
	fromA, fromB := 0, 0
	for _, row := range child.Coeffs {
		for _, c := range row {
			switch c {
			case 1:
				fromA++
			case complex(0, 1):
				fromB++
			default:
				t.Fatalf("coefficient %v belongs to neither parent", c)
			}
		}
	}
	if fromA == 0 || fromB == 0 {
		t.Fatalf("crossover did not mix: a=%d b=%d", fromA, fromB)
	}
	// Parents are untouched.
	if a.Coeffs[0][0] != 1 || b.Coeffs[0][0] != complex(0, 1) {
		t.Fatal("crossover mutated a parent")
	}
}

func TestBlockCrossoverSplitsOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := testMask(t, 1, 5, 5, optics.DomainComplex)
	b := testMask(t, complex(0, 1), 5, 5, optics.DomainComplex)

	for trial := 0; trial < 50; trial++ {
		child := BlockCrossover{}.Combine(rng, a, b)
		fromA, fromB := 0, 0
		for _, row := range child.Coeffs {
			for _, c := range row {
				switch c {
				case 1:
					fromA++
				case complex(0, 1):
					fromB++
				default:
					t.Fatalf("coefficient %v belongs to neither parent", c)
				}
			}
		}
		if fromA == 0 || fromB == 0 {
			t.Fatalf("trial %d: block crossover produced a clone: a=%d b=%d", trial, fromA, fromB)
		}
	}
}

func TestGaussianMutatorRespectsProbability(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m := testMask(t, 1, 8, 8, optics.DomainPhaseOnly)

	unchanged := GaussianMutator{}.Mutate(rng, m, 0, 0.5)
	if !reflect.DeepEqual(unchanged.Coeffs, m.Coeffs) {
		t.Fatal("zero probability still mutated the mask")
	}

	mutated := GaussianMutator{}.Mutate(rng, m, 1, 0.5)
	if reflect.DeepEqual(mutated.Coeffs, m.Coeffs) {
		t.Fatal("unit probability left the mask unchanged")
	}
	if err := mutated.Validate(); err != nil {
		t.Fatalf("mutated mask escaped its domain: %v", err)
	}
}

func TestGaussianMutatorClampsAmplitude(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	m := testMask(t, complex(0.5, 0), 8, 8, optics.DomainAmplitude)

	mutated := GaussianMutator{}.Mutate(rng, m, 1, 5)
	if err := mutated.Validate(); err != nil {
		t.Fatalf("amplitude mutation escaped [0,1]: %v", err)
	}
}

func TestResetMutatorRedrawsInDomain(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := testMask(t, 1, 8, 8, optics.DomainPhaseOnly)

	mutated := ResetMutator{}.Mutate(rng, m, 1, 0)
	if reflect.DeepEqual(mutated.Coeffs, m.Coeffs) {
		t.Fatal("reset mutation left the mask unchanged")
	}
	if err := mutated.Validate(); err != nil {
		t.Fatalf("reset mutation escaped its domain: %v", err)
	}
}

func TestRandomPhaseInitUnitModulus(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	m, err := RandomPhaseInit{}.Random(rng, 6, 4, optics.DomainPhaseOnly)
	if err != nil {
		t.Fatalf("random init: %v", err)
	}
	if m.Width() != 6 || m.Height() != 4 {
		t.Fatalf("unexpected shape %dx%d", m.Width(), m.Height())
	}
	for y, row := range m.Coeffs {
		for x, c := range row {
			if math.Abs(cmplx.Abs(c)-1) > 1e-9 {
				t.Fatalf("coefficient (%d,%d) modulus %g", x, y, cmplx.Abs(c))
			}
		}
	}
	if _, err := (RandomPhaseInit{}).Random(rng, 0, 4, optics.DomainPhaseOnly); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestIdentityInit(t *testing.T) {
	m, err := IdentityInit{}.Random(nil, 3, 3, optics.DomainPhaseOnly)
	if err != nil {
		t.Fatalf("identity init: %v", err)
	}
	for _, row := range m.Coeffs {
		for _, c := range row {
			if c != 1 {
				t.Fatalf("identity init produced %v", c)
			}
		}
	}
}
