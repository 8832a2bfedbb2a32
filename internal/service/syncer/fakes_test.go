package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// memStore is an in-memory queue with the same delivery semantics as the
// SQL repositories.
type memStore struct {
	mu      sync.Mutex
	entries map[int64]*domain.QueueEntry

	listErr error
	markErr map[int64]error

	marked   []int64
	recorded map[int64]string
}

func newMemStore(entries ...domain.QueueEntry) *memStore {
	s := &memStore{
		entries:  make(map[int64]*domain.QueueEntry),
		markErr:  make(map[int64]error),
		recorded: make(map[int64]string),
	}
	for i := range entries {
		e := entries[i]
		s.entries[e.ID] = &e
	}
	return s
}

func (s *memStore) ListUndelivered(_ context.Context, limit int) ([]domain.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}

	var out []domain.QueueEntry
	for _, e := range s.entries {
		if e.DeliveredAt == nil {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkDelivered(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	e, ok := s.entries[id]
	if !ok || e.DeliveredAt != nil {
		return fmt.Errorf("queue entry %d: %w", id, domain.ErrNotFound)
	}
	now := time.Now()
	e.DeliveredAt = &now
	e.DeliveryError = nil
	s.marked = append(s.marked, id)
	return nil
}

func (s *memStore) RecordDeliveryError(_ context.Context, id int64, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.DeliveryError = &msg
	s.recorded[id] = msg
	return nil
}

// fakeAnki is an in-memory AnkiConnect.
type fakeAnki struct {
	mu      sync.Mutex
	version int
	pingErr error
	// notes maps "noteType|normalized front" to note id.
	notes   map[string]int64
	nextID  int64
	addErr  map[string]error
	findErr map[string]error

	added []string
}

func newFakeAnki() *fakeAnki {
	return &fakeAnki{
		version: 6,
		notes:   make(map[string]int64),
		nextID:  1000,
		addErr:  make(map[string]error),
		findErr: make(map[string]error),
	}
}

func noteKey(front, noteType string) string {
	return noteType + "|" + domain.Normalize(front)
}

func (f *fakeAnki) Version(context.Context) (int, error) {
	if f.pingErr != nil {
		return 0, f.pingErr
	}
	return f.version, nil
}

func (f *fakeAnki) FindDuplicate(_ context.Context, front, noteType string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.findErr[front]; err != nil {
		return 0, false, err
	}
	id, ok := f.notes[noteKey(front, noteType)]
	return id, ok, nil
}

func (f *fakeAnki) AddNote(_ context.Context, _, noteType, front, _ string, _ []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.addErr[front]; err != nil {
		return 0, err
	}
	f.nextID++
	f.notes[noteKey(front, noteType)] = f.nextID
	f.added = append(f.added, front)
	return f.nextID, nil
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

func entry(id int64, text string, def *string) domain.QueueEntry {
	return domain.QueueEntry{
		ID:           id,
		RawText:      text,
		CanonicalKey: domain.Normalize(text),
		Language:     "en",
		Definition:   def,
		Tags:         domain.BuildTags("en", nil),
		Bucket:       domain.DefaultBucket,
		Kind:         domain.DefaultKind,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, int(id), 0, time.UTC),
	}
}
