package ingest

import (
	"context"
	"sync"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// memStore is an in-memory queueStore whose Insert is atomic on the
// (canonical key, bucket, kind) triple, like the real stores.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[[3]string]domain.QueueEntry

	// beforeFind, when set, runs before every FindByKey.
	beforeFind func()
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[[3]string]domain.QueueEntry)}
}

func (m *memStore) FindByKey(_ context.Context, key, bucket, kind string) (*domain.QueueEntry, error) {
	if m.beforeFind != nil {
		m.beforeFind()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[[3]string{key, bucket, kind}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (m *memStore) Insert(_ context.Context, e *domain.QueueEntry) (*domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [3]string{e.CanonicalKey, e.Bucket, e.Kind}
	if _, ok := m.entries[k]; ok {
		return nil, domain.ErrAlreadyExists
	}
	m.nextID++
	stored := *e
	stored.ID = m.nextID
	m.entries[k] = stored
	return &stored, nil
}

func (m *memStore) ListRecent(_ context.Context, limit int) ([]domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.QueueEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Stats(context.Context) (domain.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.QueueStats{Total: len(m.entries), Pending: len(m.entries)}, nil
}

func (m *memStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
