package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/yoavsyo/optic-classifier/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	masks       map[string]model.MaskRecord
	runs        map[string]model.RunRecord
	history     map[string][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.masks = make(map[string]model.MaskRecord)
	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]float64)
	return nil
}

func (s *MemoryStore) SaveMask(_ context.Context, mask model.MaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.masks[mask.ID] = mask
	return nil
}

func (s *MemoryStore) GetMask(_ context.Context, id string) (model.MaskRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mask, ok := s.masks[id]
	return mask, ok, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	return out, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}
