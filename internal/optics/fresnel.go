package optics

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/yoavsyo/optic-classifier/internal/field"
)

// Propagate applies free-space propagation over the given distance using
// the angular-spectrum form of the Fresnel approximation: transform the
// field to the spatial-frequency domain, multiply by the transfer function
//
//	H(fx, fy) = exp(i k z) * exp(-i pi lambda z (fx^2 + fy^2))
//
// with k = 2 pi / lambda, and transform back. A negative distance
// propagates backwards; zero distance returns a copy. The input field is
// never modified.
func Propagate(f field.Field, distance float64) (field.Field, error) {
	w, h := f.Width(), f.Height()
	if w <= 0 || h <= 0 {
		return field.Field{}, fmt.Errorf("%w: field dimensions must be positive, got %dx%d", ErrConfiguration, w, h)
	}
	if f.Pitch <= 0 {
		return field.Field{}, fmt.Errorf("%w: pitch must be > 0, got %g", ErrConfiguration, f.Pitch)
	}
	if f.Wavelength <= 0 {
		return field.Field{}, fmt.Errorf("%w: wavelength must be > 0, got %g", ErrConfiguration, f.Wavelength)
	}
	if distance == 0 {
		return f.Clone(), nil
	}

	fx := fftFreqs(w, f.Pitch)
	fy := fftFreqs(h, f.Pitch)

	spectrum := fft.FFT2(f.Data)

	k := 2 * math.Pi / f.Wavelength
	global := k * distance
	quad := -math.Pi * f.Wavelength * distance
	for y := range spectrum {
		fy2 := fy[y] * fy[y]
		for x := range spectrum[y] {
			arg := global + quad*(fx[x]*fx[x]+fy2)
			spectrum[y][x] *= cmplx.Exp(complex(0, arg))
		}
	}

	return field.Field{
		Data:       fft.IFFT2(spectrum),
		Pitch:      f.Pitch,
		Wavelength: f.Wavelength,
	}, nil
}

// SamplingWarnings checks the Fresnel sampling criterion for a plane of
// w x h samples propagated over distance. When the aperture is too small
// for the quadratic phase to be sampled without aliasing
// (N * pitch^2 < lambda * |z|), propagation still runs but fidelity drops;
// the returned diagnostics describe each violated axis. An empty slice
// means the configuration is safely sampled.
func SamplingWarnings(w, h int, pitch, wavelength, distance float64) []string {
	if w <= 0 || h <= 0 || pitch <= 0 || wavelength <= 0 || distance == 0 {
		return nil
	}
	z := math.Abs(distance)
	var warnings []string
	if limit := wavelength * z / (float64(w) * pitch); pitch > limit {
		warnings = append(warnings, fmt.Sprintf(
			"fresnel sampling criterion violated on x axis: pitch %g exceeds limit %g for distance %g", pitch, limit, distance))
	}
	if limit := wavelength * z / (float64(h) * pitch); pitch > limit {
		warnings = append(warnings, fmt.Sprintf(
			"fresnel sampling criterion violated on y axis: pitch %g exceeds limit %g for distance %g", pitch, limit, distance))
	}
	return warnings
}

// fftFreqs returns spatial frequencies in FFT bin order:
// 0, 1, ..., n/2-1, -n/2, ..., -1 all divided by n*d.
func fftFreqs(n int, d float64) []float64 {
	freqs := make([]float64, n)
	scale := 1.0 / (float64(n) * d)
	for i := 0; i < n; i++ {
		if i < (n+1)/2 {
			freqs[i] = float64(i) * scale
		} else {
			freqs[i] = float64(i-n) * scale
		}
	}
	return freqs
}
