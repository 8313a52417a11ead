package store

import (
	"context"
	"sync"

	"github.com/climascope/climate-grid-engine/internal/domain"
)

// MemoryStore is an in-memory GridStore with the same replacement semantics
// as the Postgres implementation. It backs tests and the no-database demo
// mode.
type MemoryStore struct {
	mu    sync.RWMutex
	cells map[domain.CellKey][]domain.GridDataPoint
	order []domain.CellKey // insertion order, keeps query results stable
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cells: make(map[domain.CellKey][]domain.GridDataPoint)}
}

func (s *MemoryStore) UpsertBatch(_ context.Context, points []domain.GridDataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Delete-then-insert per cell key: the first point for a key in this
	// batch drops whatever the cell held before.
	replaced := make(map[domain.CellKey]bool, len(points))
	for _, p := range points {
		key := p.CellKey()
		if !replaced[key] {
			if _, existed := s.cells[key]; !existed {
				s.order = append(s.order, key)
			}
			s.cells[key] = nil
			replaced[key] = true
		}
		s.cells[key] = append(s.cells[key], p)
	}
	return nil
}

func (s *MemoryStore) QueryBox(_ context.Context, source, scenario, period string, box Box) ([]domain.GridDataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.GridDataPoint
	for _, key := range s.order {
		if key.Source != source || key.Scenario != scenario || key.TimePeriod != period {
			continue
		}
		if !box.Contains(key.Latitude, key.Longitude) {
			continue
		}
		out = append(out, s.cells[key]...)
	}
	return out, nil
}

func (s *MemoryStore) QueryByIndicator(ctx context.Context, indicatorID, source, scenario, period string, box Box) ([]domain.GridDataPoint, error) {
	all, err := s.QueryBox(ctx, source, scenario, period, box)
	if err != nil {
		return nil, err
	}
	var out []domain.GridDataPoint
	for _, p := range all {
		if p.IndicatorID == indicatorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := map[string]struct{}{}
	scenarios := map[string]struct{}{}
	periods := map[string]struct{}{}
	locations := map[[2]float64]struct{}{}
	rows := 0

	for key, points := range s.cells {
		if len(points) == 0 {
			continue
		}
		sources[key.Source] = struct{}{}
		scenarios[key.Scenario] = struct{}{}
		periods[key.TimePeriod] = struct{}{}
		locations[[2]float64{key.Latitude, key.Longitude}] = struct{}{}
		rows += len(points)
	}

	return Stats{
		Sources:     len(sources),
		Scenarios:   len(scenarios),
		TimePeriods: len(periods),
		Locations:   len(locations),
		Rows:        rows,
	}, nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }
