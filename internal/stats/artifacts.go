// Package stats writes per-run artifacts: the run record, the best mask,
// a CSV fitness history and a convergence plot, all under a benchmarks
// directory indexed by run_index.json (newest first).
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yoavsyo/optic-classifier/internal/model"
)

const runIndexFile = "run_index.json"

type RunArtifacts struct {
	Run      model.RunRecord  `json:"run"`
	BestMask model.MaskRecord `json:"best_mask"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Labels         int     `json:"labels"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Seed           int64   `json:"seed"`
	BestFitness    float64 `json:"best_fitness"`
	StopReason     string  `json:"stop_reason"`
}

// WriteRunArtifacts creates benchmarks/<run-id>/ and writes run.json,
// best_mask.json, fitness_history.csv and convergence.png. Returns the
// run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}
	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "best_mask.json"), artifacts.BestMask); err != nil {
		return "", err
	}
	if err := writeHistoryCSV(filepath.Join(runDir, "fitness_history.csv"), artifacts.Run.History); err != nil {
		return "", err
	}
	if len(artifacts.Run.History) > 0 {
		if err := writeConvergencePlot(filepath.Join(runDir, "convergence.png"), artifacts.Run.History); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

// AppendRunIndex prepends the entry so the index stays newest-first.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}
	entries, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	entries = append([]RunIndexEntry{entry}, entries...)
	return writeJSON(filepath.Join(baseDir, runIndexFile), entries)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", runIndexFile, err)
	}
	return entries, nil
}

// ExportRunArtifacts copies a run's artifact files into outDir/<run-id>.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	runDir := filepath.Join(baseDir, runID)
	items, err := os.ReadDir(runDir)
	if err != nil {
		return "", fmt.Errorf("read run artifacts: %w", err)
	}
	dstDir := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", err
	}
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(runDir, item.Name()))
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dstDir, item.Name()), data, 0o644); err != nil {
			return "", err
		}
	}
	return dstDir, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeHistoryCSV(path string, history []model.GenerationStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"generation", "best", "mean", "worst", "failed"}); err != nil {
		return err
	}
	for _, g := range history {
		record := []string{
			strconv.Itoa(g.Generation),
			strconv.FormatFloat(g.BestFitness, 'g', -1, 64),
			strconv.FormatFloat(g.MeanFitness, 'g', -1, 64),
			strconv.FormatFloat(g.WorstFitness, 'g', -1, 64),
			strconv.Itoa(g.FailedEvaluations),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeConvergencePlot(path string, history []model.GenerationStats) error {
	p := plot.New()
	p.Title.Text = "Optimization Progress"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	series := []struct {
		name  string
		color color.RGBA
		pick  func(model.GenerationStats) float64
	}{
		{"best", color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, func(g model.GenerationStats) float64 { return g.BestFitness }},
		{"mean", color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, func(g model.GenerationStats) float64 { return g.MeanFitness }},
		{"worst", color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}, func(g model.GenerationStats) float64 { return g.WorstFitness }},
	}
	for _, s := range series {
		xys := make(plotter.XYs, len(history))
		for i, g := range history {
			xys[i].X = float64(g.Generation)
			xys[i].Y = s.pick(g)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = s.color
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
