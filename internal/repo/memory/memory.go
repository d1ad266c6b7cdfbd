package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/repo"
)

const DefaultHistory = 20

// Store is a fixed-size ring of the most recent run reports.
type Store struct {
	mu      sync.RWMutex
	reports []domain.RunReport
	next    int
	full    bool
}

func New(history int) *Store {
	if history < 1 {
		history = DefaultHistory
	}
	return &Store{reports: make([]domain.RunReport, history)}
}

func (m *Store) Save(ctx context.Context, r domain.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[m.next] = r
	m.next = (m.next + 1) % len(m.reports)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) (domain.RunReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.len() == 0 {
		return domain.RunReport{}, repo.ErrNotFound
	}
	return m.reports[m.index(0)], nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]domain.RunReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.len()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.RunReport, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, m.reports[m.index(i)])
	}
	return out, nil
}

func (m *Store) len() int {
	if m.full {
		return len(m.reports)
	}
	return m.next
}

// index maps age (0 = newest) to a slot.
func (m *Store) index(age int) int {
	return (m.next - 1 - age + len(m.reports)) % len(m.reports)
}
