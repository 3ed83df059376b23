package optic

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	client, err := New(Options{
		StoreKind:     "memory",
		BenchmarksDir: filepath.Join(dir, "benchmarks"),
		ExportsDir:    filepath.Join(dir, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func smallRunRequest() RunRequest {
	return RunRequest{
		Width:       8,
		Height:      8,
		Labels:      4,
		FitnessMode: "margin",
		BatchSize:   8,
		Population:  6,
		EliteCount:  1,
		Generations: 3,
		Workers:     2,
		Seed:        1,
	}
}

func TestClientRunPersistsEverything(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	summary, err := client.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("missing run id")
	}
	if len(summary.History) == 0 || len(summary.History) > 3 {
		t.Fatalf("unexpected history length %d", len(summary.History))
	}
	if summary.StopReason == "" {
		t.Fatal("missing stop reason")
	}

	for _, name := range []string{"run.json", "best_mask.json", "fitness_history.csv"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("unexpected runs listing: %+v", runs)
	}
	if runs[0].Labels != 4 || runs[0].Population != 6 {
		t.Fatalf("run item missing config: %+v", runs[0])
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != len(summary.History) {
		t.Fatalf("history length %d, want %d", len(history), len(summary.History))
	}
	if history[len(history)-1] != summary.History[len(summary.History)-1].BestFitness {
		t.Fatal("stored history does not match the run summary")
	}

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if len(diagnostics) != len(summary.History) {
		t.Fatalf("diagnostics length %d, want %d", len(diagnostics), len(summary.History))
	}

	mask, record, err := client.BestMask(ctx, BestMaskRequest{Latest: true})
	if err != nil {
		t.Fatalf("best mask: %v", err)
	}
	if mask.Width() != 8 || mask.Height() != 8 {
		t.Fatalf("best mask shape %dx%d", mask.Width(), mask.Height())
	}
	if record.Domain != "phase" {
		t.Fatalf("best mask domain %q", record.Domain)
	}
	if err := mask.Validate(); err != nil {
		t.Fatalf("best mask invalid: %v", err)
	}
}

func TestClientRunSeededReproducibility(t *testing.T) {
	ctx := context.Background()

	first, err := testClient(t).Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := testClient(t).Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.History) != len(second.History) {
		t.Fatalf("history lengths differ: %d vs %d", len(first.History), len(second.History))
	}
	for i := range first.History {
		if first.History[i] != second.History[i] {
			t.Fatalf("generation %d differs: %+v vs %+v", i, first.History[i], second.History[i])
		}
	}
	if first.BestFitness != second.BestFitness {
		t.Fatalf("best fitness differs: %.6f vs %.6f", first.BestFitness, second.BestFitness)
	}
}

func TestClientRunRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	req := smallRunRequest()
	req.FitnessMode = "softmax"
	if _, err := client.Run(ctx, req); err == nil {
		t.Fatal("expected error for unknown fitness mode")
	}

	req = smallRunRequest()
	req.MaskDomain = "holographic"
	if _, err := client.Run(ctx, req); err == nil {
		t.Fatal("expected error for unknown mask domain")
	}

	req = smallRunRequest()
	req.ResampleEachGen = true
	req.DatasetCSV = "corpus.csv"
	if _, err := client.Run(ctx, req); err == nil {
		t.Fatal("expected error for resampling a CSV corpus")
	}
}

func TestClientExport(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	summary, err := client.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("exported run %s, want %s", exported.RunID, summary.RunID)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "run.json")); err != nil {
		t.Fatalf("missing exported run.json: %v", err)
	}

	if _, err := client.Export(ctx, ExportRequest{RunID: summary.RunID, Latest: true}); err == nil {
		t.Fatal("expected error for ambiguous export request")
	}
	if _, err := client.Export(ctx, ExportRequest{}); err == nil {
		t.Fatal("expected error for empty export request")
	}
}

func TestClientResolveLatestWithoutRuns(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true}); err == nil {
		t.Fatal("expected error when no runs exist")
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}
