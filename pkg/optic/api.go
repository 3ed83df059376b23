// Package optic is the public surface of the optical digit classifier.
// It wires the optical pipeline, the evolutionary optimizer, persistent
// storage and run artifacts behind one client.
package optic

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/yoavsyo/optic-classifier/internal/classify"
	"github.com/yoavsyo/optic-classifier/internal/dataset"
	"github.com/yoavsyo/optic-classifier/internal/evo"
	"github.com/yoavsyo/optic-classifier/internal/model"
	"github.com/yoavsyo/optic-classifier/internal/optics"
	"github.com/yoavsyo/optic-classifier/internal/stats"
	"github.com/yoavsyo/optic-classifier/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "optic.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
}

type Client struct {
	store       storage.Store
	initialized bool

	benchmarksDir string
	exportsDir    string
}

// RunRequest carries one optimization run's full configuration. Zero
// values take the documented defaults in Run.
type RunRequest struct {
	// Optical geometry.
	Width      int
	Height     int
	Wavelength float64
	Pitch      float64
	Distance1  float64
	Distance2  float64

	// Classification.
	Labels      int
	FitnessMode string
	MaskDomain  string
	// AmplitudeEncode switches the input encoding from binary phase
	// modulation to direct amplitude modulation.
	AmplitudeEncode bool

	// Training data. DatasetCSV points at a label,pixel... corpus; when
	// empty a balanced synthetic batch of BatchSize spots is generated.
	// ResampleEachGen redraws the synthetic batch every generation.
	DatasetCSV      string
	BatchSize       int
	ResampleEachGen bool

	// Optimizer.
	Population       int
	EliteCount       int
	Generations      int
	CrossoverProb    float64
	MutationProb     float64
	MutationStrength float64
	TargetFitness    float64
	StagnationLimit  int
	Seed             int64
	Workers          int
	Selection        string
	Crossover        string
	Mutation         string
	Init             string
}

type RunSummary struct {
	RunID          string
	ArtifactsDir   string
	BestFitness    float64
	BestGeneration int
	StopReason     string
	History        []model.GenerationStats
	Warnings       []string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Labels       int
	Population   int
	Generations  int
	Seed         int64
	BestFitness  float64
	StopReason   string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type BestMaskRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

// Run applies defaults, executes the optimization and persists the best
// mask, the run record, the fitness history and the run artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Width <= 0 {
		req.Width = 28
	}
	if req.Height <= 0 {
		req.Height = 28
	}
	if req.Wavelength <= 0 {
		req.Wavelength = 532e-9
	}
	if req.Pitch <= 0 {
		req.Pitch = 10e-6
	}
	if req.Distance1 <= 0 {
		req.Distance1 = 0.1
	}
	if req.Distance2 <= 0 {
		req.Distance2 = 0.1
	}
	if req.Labels <= 0 {
		req.Labels = 4
	}
	if req.BatchSize <= 0 {
		req.BatchSize = 64
	}
	if req.Population <= 0 {
		req.Population = 40
	}
	if req.EliteCount <= 0 {
		req.EliteCount = req.Population / 10
		if req.EliteCount < 1 {
			req.EliteCount = 1
		}
	}
	if req.Generations <= 0 {
		req.Generations = 60
	}
	if req.CrossoverProb <= 0 {
		req.CrossoverProb = 0.9
	}
	if req.MutationProb <= 0 {
		req.MutationProb = 0.05
	}
	if req.MutationStrength <= 0 {
		req.MutationStrength = 0.2
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.ResampleEachGen && req.DatasetCSV != "" {
		return RunSummary{}, errors.New("per-generation resampling requires the synthetic dataset")
	}

	mode, err := classify.ParseMode(req.FitnessMode)
	if err != nil {
		return RunSummary{}, err
	}
	domain, err := optics.ParseDomain(req.MaskDomain)
	if err != nil {
		return RunSummary{}, err
	}
	selector, err := evo.SelectorFromName(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	crossover, err := evo.CrossoverFromName(req.Crossover)
	if err != nil {
		return RunSummary{}, err
	}
	mutator, err := evo.MutatorFromName(req.Mutation)
	if err != nil {
		return RunSummary{}, err
	}
	initializer, err := evo.InitializerFromName(req.Init)
	if err != nil {
		return RunSummary{}, err
	}

	pipeline, err := optics.NewPipeline(optics.Config{
		Wavelength:  req.Wavelength,
		Pitch:       req.Pitch,
		Distance1:   req.Distance1,
		Distance2:   req.Distance2,
		Width:       req.Width,
		Height:      req.Height,
		PhaseEncode: !req.AmplitudeEncode,
	})
	if err != nil {
		return RunSummary{}, err
	}
	regions, err := classify.NewRegions(req.Width, req.Height, req.Labels)
	if err != nil {
		return RunSummary{}, err
	}
	evaluator, err := classify.NewEvaluator(regions, mode)
	if err != nil {
		return RunSummary{}, err
	}

	var batch []dataset.LabeledImage
	if req.DatasetCSV != "" {
		batch, err = dataset.LoadCSV(req.DatasetCSV, req.Width, req.Height)
	} else {
		batch, err = dataset.SyntheticSpots(req.BatchSize, req.Width, req.Height, req.Labels, req.Seed)
	}
	if err != nil {
		return RunSummary{}, err
	}

	cfg := evo.Config{
		Pipeline:         pipeline,
		Evaluator:        evaluator,
		Batch:            batch,
		Selector:         selector,
		Crossover:        crossover,
		Mutator:          mutator,
		Initializer:      initializer,
		Domain:           domain,
		PopulationSize:   req.Population,
		EliteCount:       req.EliteCount,
		CrossoverProb:    req.CrossoverProb,
		MutationProb:     req.MutationProb,
		MutationStrength: req.MutationStrength,
		MaxGenerations:   req.Generations,
		TargetFitness:    req.TargetFitness,
		StagnationLimit:  req.StagnationLimit,
		Workers:          req.Workers,
		Seed:             req.Seed,
	}
	if req.ResampleEachGen {
		width, height, labels, size := req.Width, req.Height, req.Labels, req.BatchSize
		cfg.ResampleBatch = func(_ int, rng *rand.Rand) ([]dataset.LabeledImage, error) {
			return dataset.SyntheticSpots(size, width, height, labels, rng.Int63())
		}
	}

	optimizer, err := evo.New(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	result, err := optimizer.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	maskID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	maskRecord := storage.MaskToRecord(maskID, result.BestMask)
	if err := c.store.SaveMask(ctx, maskRecord); err != nil {
		return RunSummary{}, err
	}

	runRecord := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           runID,
		CreatedAtUTC: now,

		Width:       req.Width,
		Height:      req.Height,
		Wavelength:  req.Wavelength,
		Pitch:       req.Pitch,
		Distance1:   req.Distance1,
		Distance2:   req.Distance2,
		Labels:      req.Labels,
		PhaseEncode: !req.AmplitudeEncode,
		FitnessMode: mode.String(),
		MaskDomain:  domain.String(),

		PopulationSize:   req.Population,
		EliteCount:       req.EliteCount,
		CrossoverProb:    req.CrossoverProb,
		MutationProb:     req.MutationProb,
		MutationStrength: req.MutationStrength,
		MaxGenerations:   req.Generations,
		TargetFitness:    req.TargetFitness,
		StagnationLimit:  req.StagnationLimit,
		Seed:             req.Seed,
		Workers:          req.Workers,
		Selection:        selector.Name(),
		Crossover:        crossover.Name(),
		Mutation:         mutator.Name(),
		Init:             initializer.Name(),
		BatchSize:        len(batch),

		BestFitness:    result.BestFitness,
		BestGeneration: result.BestGeneration,
		StopReason:     string(result.StopReason),
		BestMaskID:     maskID,
		History:        result.History,
		Warnings:       pipeline.Warnings(),
	}
	if err := c.store.SaveRun(ctx, runRecord); err != nil {
		return RunSummary{}, err
	}

	bestByGeneration := make([]float64, 0, len(result.History))
	for _, g := range result.History {
		bestByGeneration = append(bestByGeneration, g.BestFitness)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, bestByGeneration); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Run:      runRecord,
		BestMask: maskRecord,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:          runID,
		CreatedAtUTC:   now,
		Labels:         req.Labels,
		PopulationSize: req.Population,
		Generations:    req.Generations,
		Seed:           req.Seed,
		BestFitness:    result.BestFitness,
		StopReason:     string(result.StopReason),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:          runID,
		ArtifactsDir:   filepath.Clean(runDir),
		BestFitness:    result.BestFitness,
		BestGeneration: result.BestGeneration,
		StopReason:     string(result.StopReason),
		History:        result.History,
		Warnings:       pipeline.Warnings(),
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Labels:       e.Labels,
			Population:   e.PopulationSize,
			Generations:  e.Generations,
			Seed:         e.Seed,
			BestFitness:  e.BestFitness,
			StopReason:   e.StopReason,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

// Diagnostics returns the full per-generation statistics of a run,
// including absorbed evaluation failures.
func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationStats, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	history := run.History
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	out := make([]model.GenerationStats, len(history))
	copy(out, history)
	return out, nil
}

// BestMask loads a run's winning mask from storage.
func (c *Client) BestMask(ctx context.Context, req BestMaskRequest) (optics.Mask, model.MaskRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "best mask")
	if err != nil {
		return optics.Mask{}, model.MaskRecord{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return optics.Mask{}, model.MaskRecord{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return optics.Mask{}, model.MaskRecord{}, err
	}
	if !ok {
		return optics.Mask{}, model.MaskRecord{}, fmt.Errorf("run not found: %s", runID)
	}

	record, ok, err := c.store.GetMask(ctx, run.BestMaskID)
	if err != nil {
		return optics.Mask{}, model.MaskRecord{}, err
	}
	if !ok {
		return optics.Mask{}, model.MaskRecord{}, fmt.Errorf("mask not found: %s", run.BestMaskID)
	}
	mask, err := storage.MaskFromRecord(record)
	if err != nil {
		return optics.Mask{}, model.MaskRecord{}, err
	}
	return mask, record, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) resolveRunID(runID string, latest bool, operation string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("%s requires run id or latest", operation)
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}
