// Package field holds the sampled complex representation of a light
// wavefront at a single plane, together with the physical sampling
// metadata every propagation step needs.
package field

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Field is a sampled wavefront: H rows by W columns of complex amplitude,
// a sample pitch (meters per pixel) and the illumination wavelength.
// Treat a Field as an immutable value; every transformation returns a new
// one and never writes through a shared buffer.
type Field struct {
	Data       [][]complex128
	Pitch      float64
	Wavelength float64
}

// New validates the samples and metadata and wraps them in a Field. The
// data slice is deep-copied so the caller keeps ownership of its buffer.
func New(data [][]complex128, pitch, wavelength float64) (Field, error) {
	if err := checkGeometry(pitch, wavelength); err != nil {
		return Field{}, err
	}
	if err := checkRect(len(data), rowWidth(data)); err != nil {
		return Field{}, err
	}
	for i, row := range data {
		if len(row) != len(data[0]) {
			return Field{}, fmt.Errorf("ragged field data: row %d has %d samples, row 0 has %d", i, len(row), len(data[0]))
		}
	}
	return Field{Data: cloneData(data), Pitch: pitch, Wavelength: wavelength}, nil
}

// FromImage builds an amplitude-only field from a normalized image:
// pixel values become real amplitudes, phase is zero everywhere.
func FromImage(img [][]float64, pitch, wavelength float64) (Field, error) {
	if err := checkGeometry(pitch, wavelength); err != nil {
		return Field{}, err
	}
	if err := checkRect(len(img), rowWidth(img)); err != nil {
		return Field{}, err
	}
	data := make([][]complex128, len(img))
	for y, row := range img {
		if len(row) != len(img[0]) {
			return Field{}, fmt.Errorf("ragged image: row %d has %d pixels, row 0 has %d", y, len(row), len(img[0]))
		}
		data[y] = make([]complex128, len(row))
		for x, v := range row {
			data[y][x] = complex(v, 0)
		}
	}
	return Field{Data: data, Pitch: pitch, Wavelength: wavelength}, nil
}

// FromImagePhase builds a binary phase-modulated field: every pixel has
// unit amplitude, bright pixels (above 0.5 in a [0,1] image) carry phase
// zero and dark pixels carry phase pi.
func FromImagePhase(img [][]float64, pitch, wavelength float64) (Field, error) {
	if err := checkGeometry(pitch, wavelength); err != nil {
		return Field{}, err
	}
	if err := checkRect(len(img), rowWidth(img)); err != nil {
		return Field{}, err
	}
	data := make([][]complex128, len(img))
	for y, row := range img {
		if len(row) != len(img[0]) {
			return Field{}, fmt.Errorf("ragged image: row %d has %d pixels, row 0 has %d", y, len(row), len(img[0]))
		}
		data[y] = make([]complex128, len(row))
		for x, v := range row {
			phase := math.Pi
			if v > 0.5 {
				phase = 0
			}
			data[y][x] = cmplx.Exp(complex(0, phase))
		}
	}
	return Field{Data: data, Pitch: pitch, Wavelength: wavelength}, nil
}

func (f Field) Width() int {
	if len(f.Data) == 0 {
		return 0
	}
	return len(f.Data[0])
}

func (f Field) Height() int {
	return len(f.Data)
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	return Field{Data: cloneData(f.Data), Pitch: f.Pitch, Wavelength: f.Wavelength}
}

// Intensity returns |E|^2 per sample.
func (f Field) Intensity() [][]float64 {
	out := make([][]float64, len(f.Data))
	for y, row := range f.Data {
		out[y] = make([]float64, len(row))
		for x, c := range row {
			re, im := real(c), imag(c)
			out[y][x] = re*re + im*im
		}
	}
	return out
}

// Energy returns the total intensity summed over the plane.
func (f Field) Energy() float64 {
	total := 0.0
	row := make([]float64, f.Width())
	for _, samples := range f.Data {
		for x, c := range samples {
			re, im := real(c), imag(c)
			row[x] = re*re + im*im
		}
		total += floats.Sum(row)
	}
	return total
}

func checkGeometry(pitch, wavelength float64) error {
	if pitch <= 0 {
		return fmt.Errorf("pitch must be > 0, got %g", pitch)
	}
	if wavelength <= 0 {
		return fmt.Errorf("wavelength must be > 0, got %g", wavelength)
	}
	return nil
}

func checkRect(h, w int) error {
	if h <= 0 || w <= 0 {
		return fmt.Errorf("field dimensions must be positive, got %dx%d", w, h)
	}
	return nil
}

func rowWidth[T any](rows [][]T) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}

func cloneData(data [][]complex128) [][]complex128 {
	out := make([][]complex128, len(data))
	for i, row := range data {
		out[i] = append([]complex128(nil), row...)
	}
	return out
}
