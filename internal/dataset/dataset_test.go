package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestValidateImage(t *testing.T) {
	good := LabeledImage{
		Pixels: [][]float64{{0, 0.5}, {1, 0.25}},
		Label:  1,
	}
	if err := good.Validate(2, 2, 4); err != nil {
		t.Fatalf("valid image rejected: %v", err)
	}

	bad := []LabeledImage{
		{Pixels: good.Pixels, Label: -1},
		{Pixels: good.Pixels, Label: 4},
		{Pixels: [][]float64{{0, 0.5}}, Label: 0},
		{Pixels: [][]float64{{0, 0.5}, {1}}, Label: 0},
		{Pixels: [][]float64{{0, 1.5}, {1, 0}}, Label: 0},
		{Pixels: [][]float64{{0, -0.1}, {1, 0}}, Label: 0},
	}
	for i, img := range bad {
		if err := img.Validate(2, 2, 4); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestValidateBatch(t *testing.T) {
	if err := ValidateBatch(nil, 2, 2, 4); err == nil {
		t.Fatal("expected error for empty batch")
	}
	batch := []LabeledImage{
		{Pixels: [][]float64{{0, 1}, {1, 0}}, Label: 0},
		{Pixels: [][]float64{{0, 1}, {1, 0}}, Label: 7},
	}
	if err := ValidateBatch(batch, 2, 2, 4); err == nil {
		t.Fatal("expected error for out-of-range label in batch")
	}
}

func TestLoadCSVRescales255(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "digits.csv")
	content := "0,0,255,128,0\n3,0,0,0,255\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	images, err := LoadCSV(path, 2, 2)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("loaded %d images, want 2", len(images))
	}
	if images[0].Label != 0 || images[1].Label != 3 {
		t.Fatalf("unexpected labels: %d %d", images[0].Label, images[1].Label)
	}
	want := [][]float64{{0, 1}, {128.0 / 255.0, 0}}
	if !reflect.DeepEqual(images[0].Pixels, want) {
		t.Fatalf("unexpected pixels: %v", images[0].Pixels)
	}
}

func TestLoadCSVScalesWholeCorpusTogether(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "digits.csv")
	// The second row's brightest pixel is 1, but it lives in a 0-255
	// corpus and must be rescaled like its neighbors.
	content := "0,0,255,64,0\n2,0,1,0,0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	images, err := LoadCSV(path, 2, 2)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	want := [][]float64{{0, 1.0 / 255.0}, {0, 0}}
	if !reflect.DeepEqual(images[1].Pixels, want) {
		t.Fatalf("dark row escaped the corpus scale: %v", images[1].Pixels)
	}
}

func TestLoadCSVKeepsNormalizedValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "digits.csv")
	content := "1,0.25,0.5,0.75,1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	images, err := LoadCSV(path, 2, 2)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	want := [][]float64{{0.25, 0.5}, {0.75, 1}}
	if !reflect.DeepEqual(images[0].Pixels, want) {
		t.Fatalf("unexpected pixels: %v", images[0].Pixels)
	}
}

func TestLoadCSVRejectsBadRows(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.csv")
	if err := os.WriteFile(short, []byte("0,1,1\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadCSV(short, 2, 2); err == nil {
		t.Fatal("expected error for short row")
	}

	badLabel := filepath.Join(dir, "label.csv")
	if err := os.WriteFile(badLabel, []byte("x,1,1,1,1\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadCSV(badLabel, 2, 2); err == nil {
		t.Fatal("expected error for non-numeric label")
	}
}

func TestSyntheticSpotsBalancedAndValid(t *testing.T) {
	batch, err := SyntheticSpots(12, 16, 16, 4, 42)
	if err != nil {
		t.Fatalf("synthetic spots: %v", err)
	}
	if len(batch) != 12 {
		t.Fatalf("got %d images, want 12", len(batch))
	}
	if err := ValidateBatch(batch, 16, 16, 4); err != nil {
		t.Fatalf("synthetic batch invalid: %v", err)
	}

	counts := make(map[int]int)
	for _, img := range batch {
		counts[img.Label]++
	}
	for label := 0; label < 4; label++ {
		if counts[label] != 3 {
			t.Fatalf("label %d appears %d times, want 3", label, counts[label])
		}
	}
}

func TestSyntheticSpotsDeterministic(t *testing.T) {
	a, err := SyntheticSpots(8, 12, 12, 4, 7)
	if err != nil {
		t.Fatalf("synthetic spots: %v", err)
	}
	b, err := SyntheticSpots(8, 12, 12, 4, 7)
	if err != nil {
		t.Fatalf("synthetic spots: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different batches")
	}

	c, err := SyntheticSpots(8, 12, 12, 4, 8)
	if err != nil {
		t.Fatalf("synthetic spots: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Fatal("different seeds produced identical batches")
	}
}
