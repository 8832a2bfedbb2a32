package ingest

import (
	"context"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// ListRecent returns the newest queue entries. A zero limit means
// DefaultLimit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	switch {
	case limit < 0:
		return nil, domain.NewValidationError("limit", "must be non-negative")
	case limit > MaxLimit:
		return nil, domain.NewValidationError("limit", "max 200")
	case limit == 0:
		limit = DefaultLimit
	}

	entries, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, newStoreError("list", err)
	}
	return entries, nil
}

// Stats returns queue-wide delivery counts.
func (s *Service) Stats(ctx context.Context) (domain.QueueStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return domain.QueueStats{}, newStoreError("stats", err)
	}
	return stats, nil
}
