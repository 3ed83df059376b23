// Package classify turns output-plane intensity patterns into digit
// predictions and fitness scores. The output plane is partitioned into
// one region per label class; the region capturing the most light wins.
package classify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Regions partitions a W x H plane into a near-square grid of label
// regions, row-major. For four labels this is the classic quadrant map:
// upper-left 0, upper-right 1, lower-left 2, lower-right 3.
type Regions struct {
	width, height int
	labels        int
	rows, cols    int
}

func NewRegions(width, height, labels int) (Regions, error) {
	if width <= 0 || height <= 0 {
		return Regions{}, fmt.Errorf("plane dimensions must be positive, got %dx%d", width, height)
	}
	if labels < 2 {
		return Regions{}, fmt.Errorf("at least 2 label classes are required, got %d", labels)
	}
	cols := int(math.Ceil(math.Sqrt(float64(labels))))
	rows := (labels + cols - 1) / cols
	if width/cols < 1 || height/rows < 1 {
		return Regions{}, fmt.Errorf("plane %dx%d too small for %d regions", width, height, labels)
	}
	return Regions{width: width, height: height, labels: labels, rows: rows, cols: cols}, nil
}

func (r Regions) Labels() int {
	return r.labels
}

// Bounds returns the half-open pixel rectangle [x0,x1) x [y0,y1) assigned
// to a label.
func (r Regions) Bounds(label int) (x0, y0, x1, y1 int, err error) {
	if label < 0 || label >= r.labels {
		return 0, 0, 0, 0, fmt.Errorf("label %d outside [0,%d)", label, r.labels)
	}
	row := label / r.cols
	col := label % r.cols
	x0 = col * r.width / r.cols
	x1 = (col + 1) * r.width / r.cols
	y0 = row * r.height / r.rows
	y1 = (row + 1) * r.height / r.rows
	return x0, y0, x1, y1, nil
}

// Energies sums the intensity inside each label region.
func (r Regions) Energies(intensity [][]float64) ([]float64, error) {
	if len(intensity) != r.height || len(intensity) == 0 || len(intensity[0]) != r.width {
		gotW := 0
		if len(intensity) > 0 {
			gotW = len(intensity[0])
		}
		return nil, fmt.Errorf("intensity shape %dx%d does not match regions %dx%d", gotW, len(intensity), r.width, r.height)
	}
	energies := make([]float64, r.labels)
	for label := 0; label < r.labels; label++ {
		x0, y0, x1, y1, err := r.Bounds(label)
		if err != nil {
			return nil, err
		}
		total := 0.0
		for y := y0; y < y1; y++ {
			total += floats.Sum(intensity[y][x0:x1])
		}
		energies[label] = total
	}
	return energies, nil
}

// Classify predicts the label whose region captured the most energy.
// Ties break toward the lowest region index.
func (r Regions) Classify(intensity [][]float64) (int, []float64, error) {
	energies, err := r.Energies(intensity)
	if err != nil {
		return 0, nil, err
	}
	best := 0
	for i := 1; i < len(energies); i++ {
		if energies[i] > energies[best] {
			best = i
		}
	}
	return best, energies, nil
}
