package classify

import (
	"fmt"
)

// Mode selects how a single classification turns into a score.
type Mode int

const (
	// ModeAccuracy scores 1.0 for a correct prediction, 0.0 otherwise.
	ModeAccuracy Mode = iota
	// ModeMargin scores the normalized energy margin between the true
	// region and the strongest competitor, mapped into [0,1]. Smoother
	// than accuracy, which helps the optimizer early on.
	ModeMargin
)

func (m Mode) String() string {
	switch m {
	case ModeAccuracy:
		return "accuracy"
	case ModeMargin:
		return "margin"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "accuracy":
		return ModeAccuracy, nil
	case "margin":
		return ModeMargin, nil
	default:
		return 0, fmt.Errorf("unsupported fitness mode: %s", name)
	}
}

// Sample pairs an output intensity pattern with its true label.
type Sample struct {
	Intensity [][]float64
	Label     int
}

// Evaluator scores intensity patterns against true labels. Scoring is
// fully deterministic: identical inputs always produce identical scores.
type Evaluator struct {
	regions Regions
	mode    Mode
}

func NewEvaluator(regions Regions, mode Mode) (Evaluator, error) {
	if mode != ModeAccuracy && mode != ModeMargin {
		return Evaluator{}, fmt.Errorf("unsupported fitness mode: %d", mode)
	}
	return Evaluator{regions: regions, mode: mode}, nil
}

func (e Evaluator) Regions() Regions {
	return e.regions
}

func (e Evaluator) Mode() Mode {
	return e.mode
}

// Score rates a single output pattern against its true label.
func (e Evaluator) Score(intensity [][]float64, label int) (float64, error) {
	if label < 0 || label >= e.regions.Labels() {
		return 0, fmt.Errorf("label %d outside [0,%d)", label, e.regions.Labels())
	}
	predicted, energies, err := e.regions.Classify(intensity)
	if err != nil {
		return 0, err
	}

	switch e.mode {
	case ModeMargin:
		truth := energies[label]
		bestOther := 0.0
		seen := false
		for i, v := range energies {
			if i == label {
				continue
			}
			if !seen || v > bestOther {
				bestOther = v
				seen = true
			}
		}
		const eps = 1e-12
		margin := (truth - bestOther) / (truth + bestOther + eps)
		return (margin + 1) / 2, nil
	default:
		if predicted == label {
			return 1, nil
		}
		return 0, nil
	}
}

// BatchScore averages Score over the batch.
func (e Evaluator) BatchScore(samples []Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("batch is empty")
	}
	total := 0.0
	for i, s := range samples {
		score, err := e.Score(s.Intensity, s.Label)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		total += score
	}
	return total / float64(len(samples)), nil
}
