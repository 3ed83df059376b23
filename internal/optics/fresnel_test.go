package optics

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/yoavsyo/optic-classifier/internal/field"
)

const (
	testPitch      = 10e-6
	testWavelength = 532e-9
)

func randomField(t *testing.T, w, h int, seed int64) field.Field {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([][]complex128, h)
	for y := range data {
		data[y] = make([]complex128, w)
		for x := range data[y] {
			data[y][x] = complex(rng.Float64(), rng.Float64())
		}
	}
	f, err := field.New(data, testPitch, testWavelength)
	if err != nil {
		t.Fatalf("build field: %v", err)
	}
	return f
}

func maxFieldDelta(a, b field.Field) float64 {
	worst := 0.0
	for y := range a.Data {
		for x := range a.Data[y] {
			if d := cmplx.Abs(a.Data[y][x] - b.Data[y][x]); d > worst {
				worst = d
			}
		}
	}
	return worst
}

func TestPropagateRoundTrip(t *testing.T) {
	f := randomField(t, 16, 16, 7)

	forward, err := Propagate(f, 0.01)
	if err != nil {
		t.Fatalf("forward propagation: %v", err)
	}
	back, err := Propagate(forward, -0.01)
	if err != nil {
		t.Fatalf("backward propagation: %v", err)
	}

	if delta := maxFieldDelta(f, back); delta > 1e-9 {
		t.Fatalf("round trip drifted by %g", delta)
	}
}

func TestPropagateComposesOverDistance(t *testing.T) {
	f := randomField(t, 16, 12, 11)

	step1, err := Propagate(f, 0.01)
	if err != nil {
		t.Fatalf("first hop: %v", err)
	}
	step2, err := Propagate(step1, 0.02)
	if err != nil {
		t.Fatalf("second hop: %v", err)
	}
	direct, err := Propagate(f, 0.03)
	if err != nil {
		t.Fatalf("direct propagation: %v", err)
	}

	if delta := maxFieldDelta(step2, direct); delta > 1e-9 {
		t.Fatalf("two hops differ from direct propagation by %g", delta)
	}
}

func TestPropagateConservesEnergy(t *testing.T) {
	f := randomField(t, 16, 16, 3)

	out, err := Propagate(f, 0.02)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	before, after := f.Energy(), out.Energy()
	if math.Abs(before-after) > 1e-9*before {
		t.Fatalf("energy changed: %g -> %g", before, after)
	}
}

func TestPropagateZeroDistanceIsCopy(t *testing.T) {
	f := randomField(t, 8, 8, 1)
	out, err := Propagate(f, 0)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if delta := maxFieldDelta(f, out); delta != 0 {
		t.Fatalf("zero-distance propagation altered the field by %g", delta)
	}
	out.Data[0][0] = 42
	if f.Data[0][0] == 42 {
		t.Fatal("zero-distance propagation shares the input buffer")
	}
}

func TestPropagateRejectsBadField(t *testing.T) {
	if _, err := Propagate(field.Field{}, 0.01); err == nil {
		t.Fatal("expected error for empty field")
	}
	bad := field.Field{Data: [][]complex128{{1}}, Pitch: 0, Wavelength: testWavelength}
	if _, err := Propagate(bad, 0.01); err == nil {
		t.Fatal("expected error for zero pitch")
	}
}

func TestSamplingWarnings(t *testing.T) {
	// Short throw: quadratic phase aliases, both axes flagged.
	warnings := SamplingWarnings(28, 28, testPitch, testWavelength, 0.001)
	if len(warnings) != 2 {
		t.Fatalf("expected warnings on both axes, got %v", warnings)
	}
	// Long throw: safely sampled.
	if warnings := SamplingWarnings(28, 28, testPitch, testWavelength, 0.1); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if warnings := SamplingWarnings(28, 28, testPitch, testWavelength, 0); warnings != nil {
		t.Fatalf("expected nil for zero distance, got %v", warnings)
	}
}

func TestFFTFreqsBinOrder(t *testing.T) {
	freqs := fftFreqs(4, 0.5)
	want := []float64{0, 0.5, -1, -0.5}
	for i := range want {
		if math.Abs(freqs[i]-want[i]) > 1e-12 {
			t.Fatalf("bin %d: got %g, want %g", i, freqs[i], want[i])
		}
	}

	odd := fftFreqs(5, 1)
	wantOdd := []float64{0, 0.2, 0.4, -0.4, -0.2}
	for i := range wantOdd {
		if math.Abs(odd[i]-wantOdd[i]) > 1e-12 {
			t.Fatalf("odd bin %d: got %g, want %g", i, odd[i], wantOdd[i])
		}
	}
}
