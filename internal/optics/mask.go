package optics

import (
	"fmt"
	"math/cmplx"

	"github.com/yoavsyo/optic-classifier/internal/field"
)

// Domain constrains the coefficients a mask may hold.
type Domain int

const (
	// DomainPhaseOnly restricts coefficients to the unit circle: the mask
	// shifts phase but transmits all light. This is the original optical
	// element the classifier was built around.
	DomainPhaseOnly Domain = iota
	// DomainAmplitude restricts coefficients to real transmittance in [0,1].
	DomainAmplitude
	// DomainComplex leaves coefficients unconstrained.
	DomainComplex
)

func (d Domain) String() string {
	switch d {
	case DomainPhaseOnly:
		return "phase"
	case DomainAmplitude:
		return "amplitude"
	case DomainComplex:
		return "complex"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

func ParseDomain(name string) (Domain, error) {
	switch name {
	case "", "phase":
		return DomainPhaseOnly, nil
	case "amplitude":
		return DomainAmplitude, nil
	case "complex":
		return DomainComplex, nil
	default:
		return 0, fmt.Errorf("unsupported mask domain: %s", name)
	}
}

// domainTolerance absorbs floating-point drift when checking whether a
// coefficient sits inside its domain.
const domainTolerance = 1e-9

// Mask is a planar array of complex transmission coefficients applied
// pointwise to a field. Like Field it is treated as an immutable value:
// genetic operators build new masks rather than editing one in place.
type Mask struct {
	Coeffs [][]complex128
	Domain Domain
}

// NewMask validates shape and wraps the coefficients; the slice is
// deep-copied.
func NewMask(coeffs [][]complex128, domain Domain) (Mask, error) {
	if len(coeffs) == 0 || len(coeffs[0]) == 0 {
		return Mask{}, fmt.Errorf("%w: mask dimensions must be positive", ErrConfiguration)
	}
	out := make([][]complex128, len(coeffs))
	for i, row := range coeffs {
		if len(row) != len(coeffs[0]) {
			return Mask{}, fmt.Errorf("%w: ragged mask: row %d has %d coefficients, row 0 has %d",
				ErrConfiguration, i, len(row), len(coeffs[0]))
		}
		out[i] = append([]complex128(nil), row...)
	}
	return Mask{Coeffs: out, Domain: domain}, nil
}

// IdentityMask returns an all-ones mask, a no-op in every domain.
func IdentityMask(w, h int, domain Domain) (Mask, error) {
	if w <= 0 || h <= 0 {
		return Mask{}, fmt.Errorf("%w: mask dimensions must be positive, got %dx%d", ErrConfiguration, w, h)
	}
	coeffs := make([][]complex128, h)
	for y := range coeffs {
		coeffs[y] = make([]complex128, w)
		for x := range coeffs[y] {
			coeffs[y][x] = 1
		}
	}
	return Mask{Coeffs: coeffs, Domain: domain}, nil
}

func (m Mask) Width() int {
	if len(m.Coeffs) == 0 {
		return 0
	}
	return len(m.Coeffs[0])
}

func (m Mask) Height() int {
	return len(m.Coeffs)
}

func (m Mask) Clone() Mask {
	coeffs := make([][]complex128, len(m.Coeffs))
	for i, row := range m.Coeffs {
		coeffs[i] = append([]complex128(nil), row...)
	}
	return Mask{Coeffs: coeffs, Domain: m.Domain}
}

// Clamp projects every coefficient back into the mask's domain and
// returns the projected mask. Phase-only coefficients are renormalized to
// unit modulus (a zero coefficient becomes 1), amplitude coefficients are
// clipped to real [0,1], complex coefficients pass through.
func (m Mask) Clamp() Mask {
	out := m.Clone()
	switch m.Domain {
	case DomainPhaseOnly:
		for y, row := range out.Coeffs {
			for x, c := range row {
				if c == 0 {
					out.Coeffs[y][x] = 1
					continue
				}
				out.Coeffs[y][x] = cmplx.Exp(complex(0, cmplx.Phase(c)))
			}
		}
	case DomainAmplitude:
		for y, row := range out.Coeffs {
			for x, c := range row {
				a := real(c)
				if a < 0 {
					a = 0
				} else if a > 1 {
					a = 1
				}
				out.Coeffs[y][x] = complex(a, 0)
			}
		}
	}
	return out
}

// Validate reports the first coefficient outside the mask's domain.
func (m Mask) Validate() error {
	switch m.Domain {
	case DomainPhaseOnly:
		for y, row := range m.Coeffs {
			for x, c := range row {
				mod := cmplx.Abs(c)
				if mod < 1-domainTolerance || mod > 1+domainTolerance {
					return fmt.Errorf("phase-only mask coefficient (%d,%d) has modulus %g", x, y, mod)
				}
			}
		}
	case DomainAmplitude:
		for y, row := range m.Coeffs {
			for x, c := range row {
				if imag(c) != 0 {
					return fmt.Errorf("amplitude mask coefficient (%d,%d) is not real: %v", x, y, c)
				}
				if a := real(c); a < -domainTolerance || a > 1+domainTolerance {
					return fmt.Errorf("amplitude mask coefficient (%d,%d) outside [0,1]: %g", x, y, a)
				}
			}
		}
	}
	return nil
}

// Apply multiplies the field by the mask elementwise and returns the
// transmitted field. The shapes must match exactly.
func Apply(f field.Field, m Mask) (field.Field, error) {
	if f.Width() != m.Width() || f.Height() != m.Height() {
		return field.Field{}, ShapeError{WantW: f.Width(), WantH: f.Height(), GotW: m.Width(), GotH: m.Height()}
	}
	out := f.Clone()
	for y, row := range m.Coeffs {
		for x, c := range row {
			out.Data[y][x] *= c
		}
	}
	return out, nil
}
