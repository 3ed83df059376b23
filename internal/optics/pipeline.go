package optics

import (
	"fmt"

	"github.com/yoavsyo/optic-classifier/internal/field"
)

// Config enumerates every physical parameter a pipeline needs. All fields
// are required; there are no hidden defaults.
type Config struct {
	// Wavelength of the illumination, used by both propagations.
	Wavelength float64
	// Pitch is the sample spacing shared by the input, mask and output planes.
	Pitch float64
	// Distance1 separates the input plane from the mask.
	Distance1 float64
	// Distance2 separates the mask from the output screen.
	Distance2 float64
	// Width and Height fix the shape every image, field and mask must match.
	Width, Height int
	// PhaseEncode selects binary phase modulation of the input image
	// instead of amplitude encoding.
	PhaseEncode bool
}

// Pipeline composes the full optical path: image -> input field ->
// propagate -> mask -> propagate -> output intensity. A pipeline carries
// no per-call state and may be shared across concurrent evaluations.
type Pipeline struct {
	cfg      Config
	warnings []string
}

// NewPipeline validates the configuration and precomputes sampling
// diagnostics. A violated sampling criterion is not an error; the
// diagnostics are available from Warnings.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image size must be positive, got %dx%d", ErrConfiguration, cfg.Width, cfg.Height)
	}
	if cfg.Wavelength <= 0 {
		return nil, fmt.Errorf("%w: wavelength must be > 0, got %g", ErrConfiguration, cfg.Wavelength)
	}
	if cfg.Pitch <= 0 {
		return nil, fmt.Errorf("%w: pitch must be > 0, got %g", ErrConfiguration, cfg.Pitch)
	}
	if cfg.Distance1 <= 0 {
		return nil, fmt.Errorf("%w: distance_1 must be > 0, got %g", ErrConfiguration, cfg.Distance1)
	}
	if cfg.Distance2 <= 0 {
		return nil, fmt.Errorf("%w: distance_2 must be > 0, got %g", ErrConfiguration, cfg.Distance2)
	}

	var warnings []string
	warnings = append(warnings, SamplingWarnings(cfg.Width, cfg.Height, cfg.Pitch, cfg.Wavelength, cfg.Distance1)...)
	warnings = append(warnings, SamplingWarnings(cfg.Width, cfg.Height, cfg.Pitch, cfg.Wavelength, cfg.Distance2)...)

	return &Pipeline{cfg: cfg, warnings: warnings}, nil
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

// Warnings returns sampling-criterion diagnostics recorded at
// construction. Empty when the configuration is safely sampled.
func (p *Pipeline) Warnings() []string {
	return append([]string(nil), p.warnings...)
}

// Run pushes one image through the optical path under the given mask and
// returns the output-plane intensity.
func (p *Pipeline) Run(img [][]float64, m Mask) ([][]float64, error) {
	if len(img) != p.cfg.Height || len(img) == 0 || len(img[0]) != p.cfg.Width {
		got := struct{ w, h int }{0, len(img)}
		if len(img) > 0 {
			got.w = len(img[0])
		}
		return nil, ShapeError{WantW: p.cfg.Width, WantH: p.cfg.Height, GotW: got.w, GotH: got.h}
	}

	var (
		f   field.Field
		err error
	)
	if p.cfg.PhaseEncode {
		f, err = field.FromImagePhase(img, p.cfg.Pitch, p.cfg.Wavelength)
	} else {
		f, err = field.FromImage(img, p.cfg.Pitch, p.cfg.Wavelength)
	}
	if err != nil {
		return nil, err
	}
	return p.RunField(f, m)
}

// RunField is Run for a caller-built input field.
func (p *Pipeline) RunField(f field.Field, m Mask) ([][]float64, error) {
	if f.Width() != p.cfg.Width || f.Height() != p.cfg.Height {
		return nil, ShapeError{WantW: p.cfg.Width, WantH: p.cfg.Height, GotW: f.Width(), GotH: f.Height()}
	}
	if m.Width() != p.cfg.Width || m.Height() != p.cfg.Height {
		return nil, ShapeError{WantW: p.cfg.Width, WantH: p.cfg.Height, GotW: m.Width(), GotH: m.Height()}
	}

	atMask, err := Propagate(f, p.cfg.Distance1)
	if err != nil {
		return nil, err
	}
	masked, err := Apply(atMask, m)
	if err != nil {
		return nil, err
	}
	atScreen, err := Propagate(masked, p.cfg.Distance2)
	if err != nil {
		return nil, err
	}
	return atScreen.Intensity(), nil
}
