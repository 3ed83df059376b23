package storage

import (
	"errors"
	"math"
	"math/cmplx"
	"reflect"
	"testing"

	"github.com/yoavsyo/optic-classifier/internal/model"
	"github.com/yoavsyo/optic-classifier/internal/optics"
)

func testMaskRecord(t *testing.T) (optics.Mask, model.MaskRecord) {
	t.Helper()
	coeffs := [][]complex128{
		{cmplx.Exp(complex(0, 0.25)), cmplx.Exp(complex(0, -1.5))},
		{cmplx.Exp(complex(0, math.Pi/3)), 1},
		{cmplx.Exp(complex(0, 2.9)), cmplx.Exp(complex(0, -0.001))},
	}
	mask, err := optics.NewMask(coeffs, optics.DomainPhaseOnly)
	if err != nil {
		t.Fatalf("new mask: %v", err)
	}
	return mask, MaskToRecord("mask-1", mask)
}

func TestMaskRecordRoundTripIsExact(t *testing.T) {
	mask, record := testMaskRecord(t)

	if record.Width != 2 || record.Height != 3 {
		t.Fatalf("record shape %dx%d", record.Width, record.Height)
	}
	if record.Domain != "phase" {
		t.Fatalf("record domain %q", record.Domain)
	}

	restored, err := MaskFromRecord(record)
	if err != nil {
		t.Fatalf("from record: %v", err)
	}
	if restored.Domain != mask.Domain {
		t.Fatalf("restored domain %v", restored.Domain)
	}
	// Bit-exact: the record stores the raw component planes.
	if !reflect.DeepEqual(restored.Coeffs, mask.Coeffs) {
		t.Fatalf("round trip lost precision:\n%v\n%v", restored.Coeffs, mask.Coeffs)
	}
}

func TestMaskRecordCodecRoundTrip(t *testing.T) {
	_, record := testMaskRecord(t)

	payload, err := EncodeMask(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeMask(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, record) {
		t.Fatalf("codec round trip changed the record:\n%+v\n%+v", decoded, record)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	_, record := testMaskRecord(t)
	record.SchemaVersion = 99
	payload, err := EncodeMask(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeMask(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestMaskFromRecordValidation(t *testing.T) {
	_, record := testMaskRecord(t)

	bad := record
	bad.Domain = "holographic"
	if _, err := MaskFromRecord(bad); err == nil {
		t.Fatal("expected error for unknown domain")
	}

	bad = record
	bad.Width = 0
	if _, err := MaskFromRecord(bad); err == nil {
		t.Fatal("expected error for zero width")
	}

	bad = record
	bad.Real = bad.Real[:len(bad.Real)-1]
	if _, err := MaskFromRecord(bad); err == nil {
		t.Fatal("expected error for truncated coefficient plane")
	}
}

func TestRunRecordCodecRoundTrip(t *testing.T) {
	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
		CreatedAtUTC:    "2026-08-25T10:00:00Z",
		Width:           28,
		Height:          28,
		Labels:          4,
		BestFitness:     0.93,
		StopReason:      "target_reached",
		History: []model.GenerationStats{
			{Generation: 0, BestFitness: 0.5, MeanFitness: 0.4, WorstFitness: 0.1, FailedEvaluations: 1},
			{Generation: 1, BestFitness: 0.93, MeanFitness: 0.6, WorstFitness: 0.2},
		},
	}
	payload, err := EncodeRun(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeRun(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, record) {
		t.Fatalf("codec round trip changed the record:\n%+v\n%+v", decoded, record)
	}
}
