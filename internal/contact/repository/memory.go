package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Store used by unit tests and when no database is
// configured. Records are copied in and out so callers cannot mutate state.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []*contact.Submission
	byID    map[string]*contact.Submission
}

var _ Store = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]*contact.Submission)}
}

func (m *MemoryRepo) Insert(_ context.Context, s *contact.Submission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := *s
	rec.ID = uuid.NewString()
	m.records = append(m.records, &rec)
	m.byID[rec.ID] = &rec
	return rec.ID, nil
}

func (m *MemoryRepo) Query(_ context.Context, f contact.ListFilter, order Sort, skip, limit int) ([]*contact.Submission, error) {
	if err := checkSort(order); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]*contact.Submission, 0, len(m.records))
	// newest insert first so equal timestamps keep insertion recency
	for i := len(m.records) - 1; i >= 0; i-- {
		if f.Matches(m.records[i]) {
			rec := *m.records[i]
			matched = append(matched, &rec)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if order.Desc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return []*contact.Submission{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryRepo) Count(_ context.Context, f contact.ListFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, r := range m.records {
		if f.Matches(r) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) UpdateField(_ context.Context, id, field string, value any) (*contact.Submission, error) {
	if err := checkUpdate(field, value); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.IsRead = value.(bool)
	out := *rec
	return &out, nil
}
