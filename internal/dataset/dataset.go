// Package dataset defines the labeled-image contract the optical
// classifier trains on and the two sources the tool ships with: a CSV
// loader for externally prepared corpora and a synthetic generator for
// tests and demos. Dataset acquisition and cleaning stay outside the
// core; this package only enforces the interface.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/yoavsyo/optic-classifier/internal/classify"
)

// LabeledImage is a fixed-size real-valued image in [0,1] plus its digit
// label. Read-only to the core.
type LabeledImage struct {
	Pixels [][]float64
	Label  int
}

// Validate checks the image against the configured plane shape and label
// subset.
func (img LabeledImage) Validate(width, height, labels int) error {
	if img.Label < 0 || img.Label >= labels {
		return fmt.Errorf("label %d outside [0,%d)", img.Label, labels)
	}
	if len(img.Pixels) != height {
		return fmt.Errorf("image has %d rows, want %d", len(img.Pixels), height)
	}
	for y, row := range img.Pixels {
		if len(row) != width {
			return fmt.Errorf("image row %d has %d pixels, want %d", y, len(row), width)
		}
		for x, v := range row {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return fmt.Errorf("pixel (%d,%d) outside [0,1]: %g", x, y, v)
			}
		}
	}
	return nil
}

// ValidateBatch validates every image and rejects an empty batch.
func ValidateBatch(batch []LabeledImage, width, height, labels int) error {
	if len(batch) == 0 {
		return fmt.Errorf("batch is empty")
	}
	for i, img := range batch {
		if err := img.Validate(width, height, labels); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
	}
	return nil
}

// LoadCSV reads a corpus where each row is label followed by width*height
// pixel values in row-major order. The pixel range is decided once for the
// whole corpus: if any pixel exceeds 1 the corpus is treated as [0,255]
// and every row is rescaled to [0,1], so near-black images cannot end up
// on a different scale than the rest of their corpus.
func LoadCSV(path string, width, height int) ([]LabeledImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 1 + width*height

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no rows in %s", path)
	}

	labels := make([]int, 0, len(records))
	raw := make([][]float64, 0, len(records))
	maxVal := 0.0
	for i, record := range records {
		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad label %q: %w", i, record[0], err)
		}
		values := make([]float64, 0, width*height)
		for j, cell := range record[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d pixel %d: %w", i, j, err)
			}
			if v > maxVal {
				maxVal = v
			}
			values = append(values, v)
		}
		labels = append(labels, label)
		raw = append(raw, values)
	}

	scale := 1.0
	if maxVal > 1 {
		scale = 1.0 / 255.0
	}
	out := make([]LabeledImage, 0, len(records))
	for i, values := range raw {
		pixels := make([][]float64, height)
		for y := 0; y < height; y++ {
			pixels[y] = make([]float64, width)
			for x := 0; x < width; x++ {
				pixels[y][x] = values[y*width+x] * scale
			}
		}
		out = append(out, LabeledImage{Pixels: pixels, Label: labels[i]})
	}
	return out, nil
}

// SyntheticSpots builds a balanced batch of Gaussian bright spots, one
// class per region of the label partition. A mask that focuses light from
// a spot toward its own region classifies these perfectly, which makes
// the batch a useful optimizer smoke corpus.
func SyntheticSpots(n, width, height, labels int, seed int64) ([]LabeledImage, error) {
	if n <= 0 {
		return nil, fmt.Errorf("batch size must be > 0, got %d", n)
	}
	regions, err := classify.NewRegions(width, height, labels)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	sigma := float64(minInt(width, height)) / 8.0

	out := make([]LabeledImage, 0, n)
	for i := 0; i < n; i++ {
		label := i % labels
		x0, y0, x1, y1, err := regions.Bounds(label)
		if err != nil {
			return nil, err
		}
		// Jittered spot center inside the label's own region.
		cx := float64(x0) + float64(x1-x0)*(0.35+0.3*rng.Float64())
		cy := float64(y0) + float64(y1-y0)*(0.35+0.3*rng.Float64())

		pixels := make([][]float64, height)
		for y := 0; y < height; y++ {
			pixels[y] = make([]float64, width)
			for x := 0; x < width; x++ {
				dx := float64(x) - cx
				dy := float64(y) - cy
				pixels[y][x] = math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
			}
		}
		out = append(out, LabeledImage{Pixels: pixels, Label: label})
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
