package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/yoavsyo/optic-classifier/internal/storage"
	"github.com/yoavsyo/optic-classifier/pkg/optic"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
	defaultDBPath = "optic.db"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "best-mask":
		return runBestMask(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(message string) error {
	return fmt.Errorf("%s\nusage: opticctl <init|reset|run|runs|fitness|diagnostics|best-mask|export> [flags]", message)
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := optic.New(optic.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *storeKind == "sqlite" {
		if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	width := fs.Int("width", 28, "plane width in pixels")
	height := fs.Int("height", 28, "plane height in pixels")
	wavelength := fs.Float64("wavelength", 532e-9, "illumination wavelength in meters")
	pitch := fs.Float64("pitch", 10e-6, "pixel pitch in meters")
	distance1 := fs.Float64("distance-1", 0.1, "input-to-mask distance in meters")
	distance2 := fs.Float64("distance-2", 0.1, "mask-to-screen distance in meters")
	labels := fs.Int("labels", 4, "number of classes")
	fitnessMode := fs.String("fitness-mode", "accuracy", "fitness mode: accuracy|margin")
	maskDomain := fs.String("mask-domain", "phase", "mask domain: phase|amplitude|complex")
	amplitudeEncode := fs.Bool("amplitude-encode", false, "encode inputs as amplitude instead of binary phase")
	datasetCSV := fs.String("dataset", "", "labeled image CSV path (empty uses the synthetic batch)")
	batchSize := fs.Int("batch", 64, "synthetic batch size")
	resample := fs.Bool("resample", false, "redraw the synthetic batch every generation")
	population := fs.Int("pop", 40, "population size")
	eliteCount := fs.Int("elite", 0, "elite count (0 derives from population)")
	generations := fs.Int("gens", 60, "generation count")
	crossoverProb := fs.Float64("crossover-prob", 0.9, "crossover probability")
	mutationProb := fs.Float64("mutation-prob", 0.05, "per-coefficient mutation probability")
	mutationStrength := fs.Float64("mutation-strength", 0.2, "mutation strength")
	targetFitness := fs.Float64("target-fitness", 0.0, "early-stop fitness target (0 disables)")
	stagnationLimit := fs.Int("stagnation", 0, "early-stop after N generations without improvement (0 disables)")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "evaluation worker count")
	selectionName := fs.String("selection", "tournament", "parent selection strategy: tournament|roulette")
	crossoverName := fs.String("crossover", "uniform", "crossover strategy: uniform|block")
	mutationName := fs.String("mutation", "gaussian", "mutation strategy: gaussian|reset")
	initName := fs.String("init", "random_phase", "population initializer: random_phase|uniform_amplitude|identity")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req optic.RunRequest
	if *configPath != "" {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	}
	overrideFromFlags(&req, setFlags, map[string]any{
		"width":             *width,
		"height":            *height,
		"wavelength":        *wavelength,
		"pitch":             *pitch,
		"distance-1":        *distance1,
		"distance-2":        *distance2,
		"labels":            *labels,
		"fitness-mode":      *fitnessMode,
		"mask-domain":       *maskDomain,
		"amplitude-encode":  *amplitudeEncode,
		"dataset":           *datasetCSV,
		"batch":             *batchSize,
		"resample":          *resample,
		"pop":               *population,
		"elite":             *eliteCount,
		"gens":              *generations,
		"crossover-prob":    *crossoverProb,
		"mutation-prob":     *mutationProb,
		"mutation-strength": *mutationStrength,
		"target-fitness":    *targetFitness,
		"stagnation":        *stagnationLimit,
		"seed":              *seed,
		"workers":           *workers,
		"selection":         *selectionName,
		"crossover":         *crossoverName,
		"mutation":          *mutationName,
		"init":              *initName,
	}, *configPath == "")

	client, err := optic.New(optic.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s labels=%d pop=%d gens=%d seed=%d\n",
		summary.RunID, req.Labels, req.Population, req.Generations, req.Seed)
	for _, warning := range summary.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	for _, g := range summary.History {
		fmt.Printf("generation=%d best=%.6f mean=%.6f worst=%.6f failed=%d\n",
			g.Generation, g.BestFitness, g.MeanFitness, g.WorstFitness, g.FailedEvaluations)
	}
	fmt.Printf("best_fitness=%.6f best_generation=%d stop_reason=%s\n",
		summary.BestFitness, summary.BestGeneration, summary.StopReason)
	fmt.Printf("artifacts_dir=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := optic.New(optic.Options{BenchmarksDir: benchmarksDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, optic.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s labels=%d pop=%d gens=%d seed=%d best_fitness=%.6f stop_reason=%s\n",
			item.RunID,
			item.CreatedAtUTC,
			item.Labels,
			item.Population,
			item.Generations,
			item.Seed,
			item.BestFitness,
			item.StopReason,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := optic.New(optic.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, optic.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := optic.New(optic.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, optic.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}

	for _, g := range diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f worst=%.6f failed=%d\n",
			g.Generation, g.BestFitness, g.MeanFitness, g.WorstFitness, g.FailedEvaluations)
	}
	return nil
}

func runBestMask(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best-mask", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the best mask of the most recent run")
	jsonOut := fs.Bool("json", false, "emit the full mask record as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := optic.New(optic.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	_, record, err := client.BestMask(ctx, optic.BestMaskRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	fmt.Printf("mask_id=%s domain=%s size=%dx%d coefficients=%d\n",
		record.ID, record.Domain, record.Width, record.Height, len(record.Real))
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "output directory (defaults to exports/)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := optic.New(optic.Options{BenchmarksDir: benchmarksDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, optic.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
	return nil
}
