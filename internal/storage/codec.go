package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yoavsyo/optic-classifier/internal/model"
	"github.com/yoavsyo/optic-classifier/internal/optics"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeMask(m model.MaskRecord) ([]byte, error) {
	return json.Marshal(m)
}

func DecodeMask(data []byte) (model.MaskRecord, error) {
	var mask model.MaskRecord
	if err := json.Unmarshal(data, &mask); err != nil {
		return model.MaskRecord{}, err
	}
	if err := checkVersion(mask.VersionedRecord); err != nil {
		return model.MaskRecord{}, err
	}
	return mask, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}

// MaskToRecord flattens a mask into its persistent record. Coefficients
// are split into real and imaginary planes so the round-trip is exact.
func MaskToRecord(id string, m optics.Mask) model.MaskRecord {
	w, h := m.Width(), m.Height()
	re := make([]float64, 0, w*h)
	im := make([]float64, 0, w*h)
	for _, row := range m.Coeffs {
		for _, c := range row {
			re = append(re, real(c))
			im = append(im, imag(c))
		}
	}
	return model.MaskRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Domain:          m.Domain.String(),
		Width:           w,
		Height:          h,
		Real:            re,
		Imag:            im,
	}
}

// MaskFromRecord rebuilds a mask from its persistent record.
func MaskFromRecord(rec model.MaskRecord) (optics.Mask, error) {
	domain, err := optics.ParseDomain(rec.Domain)
	if err != nil {
		return optics.Mask{}, err
	}
	if rec.Width <= 0 || rec.Height <= 0 {
		return optics.Mask{}, fmt.Errorf("mask record %s has invalid dimensions %dx%d", rec.ID, rec.Width, rec.Height)
	}
	if len(rec.Real) != rec.Width*rec.Height || len(rec.Imag) != rec.Width*rec.Height {
		return optics.Mask{}, fmt.Errorf("mask record %s has %d/%d coefficients, want %d",
			rec.ID, len(rec.Real), len(rec.Imag), rec.Width*rec.Height)
	}
	coeffs := make([][]complex128, rec.Height)
	for y := 0; y < rec.Height; y++ {
		coeffs[y] = make([]complex128, rec.Width)
		for x := 0; x < rec.Width; x++ {
			i := y*rec.Width + x
			coeffs[y][x] = complex(rec.Real[i], rec.Imag[i])
		}
	}
	return optics.NewMask(coeffs, domain)
}
