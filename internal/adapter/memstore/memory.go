package memstore

import (
	"context"
	"sort"
	"sync"

	"mdindex/internal/domain"
)

// MemoryStore is a non-persistent index store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.Record)}
}

func clone(rec domain.Record) domain.Record {
	rec.Keywords = append([]string(nil), rec.Keywords...)
	return rec
}

func (s *MemoryStore) Get(_ context.Context, name string) (domain.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return domain.Record{}, false, nil
	}
	return clone(rec), true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]domain.Record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, clone(rec))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs, nil
}

// Put stores rec with its keywords in canonical form, as the persistent
// stores do.
func (s *MemoryStore) Put(_ context.Context, rec domain.Record) error {
	rec.Keywords = domain.SplitKeywords(domain.JoinKeywords(rec.Keywords))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Name] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, name)
	return nil
}

func (s *MemoryStore) DeleteMissing(_ context.Context, observed map[string]struct{}) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for name := range s.records {
		if _, ok := observed[name]; !ok {
			delete(s.records, name)
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
