package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/foodsec/trucktally/pkg/trucktally/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	runs   map[string]store.Run
	trucks map[string][]store.Truck
	daily  map[string][]store.DailyTotal
	items  map[string]map[string]struct{}
	units  map[string]map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID: 1,
		runs:   make(map[string]store.Run),
		trucks: make(map[string][]store.Truck),
		daily:  make(map[string][]store.DailyTotal),
		items:  make(map[string]map[string]struct{}),
		units:  make(map[string]map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateRun records a run.
func (s *Store) CreateRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok, nil
}

// SaveTrucks appends enriched rows for a run.
func (s *Store) SaveTrucks(ctx context.Context, runID string, trucks []store.Truck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range trucks {
		t.ID = s.nextID
		s.nextID++
		t.Items = append([]store.Item(nil), t.Items...)
		s.trucks[runID] = append(s.trucks[runID], t)
	}
	return nil
}

// GetTrucks returns a run's enriched rows.
func (s *Store) GetTrucks(ctx context.Context, runID string) ([]store.Truck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Truck, len(s.trucks[runID]))
	copy(out, s.trucks[runID])
	return out, nil
}

// SaveDailyTotals replaces a run's daily roll-ups.
func (s *Store) SaveDailyTotals(ctx context.Context, runID string, totals []store.DailyTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daily[runID] = append([]store.DailyTotal(nil), totals...)
	return nil
}

// GetDailyTotals returns a run's daily roll-ups.
func (s *Store) GetDailyTotals(ctx context.Context, runID string) ([]store.DailyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.DailyTotal, len(s.daily[runID]))
	copy(out, s.daily[runID])
	return out, nil
}

// SaveReviewEntries records review entries, deduplicated per run.
func (s *Store) SaveReviewEntries(ctx context.Context, runID string, items, units []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[runID] == nil {
		s.items[runID] = make(map[string]struct{})
		s.units[runID] = make(map[string]struct{})
	}
	for _, e := range items {
		s.items[runID][e] = struct{}{}
	}
	for _, e := range units {
		s.units[runID][e] = struct{}{}
	}
	return nil
}

// GetReviewEntries returns a run's review entries, sorted.
func (s *Store) GetReviewEntries(ctx context.Context, runID string) ([]string, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.items[runID]), sorted(s.units[runID]), nil
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
