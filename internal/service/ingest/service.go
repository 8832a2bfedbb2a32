// Package ingest accepts word submissions and files them into the queue.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
	maxNameLen   = 100
)

type queueStore interface {
	FindByKey(ctx context.Context, canonicalKey, bucket, kind string) (*domain.QueueEntry, error)
	Insert(ctx context.Context, entry *domain.QueueEntry) (*domain.QueueEntry, error)
	ListRecent(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	Stats(ctx context.Context) (domain.QueueStats, error)
}

type definitionResolver interface {
	Resolve(ctx context.Context, text, languageCode string) domain.Resolution
}

// Service coordinates validation, deduplication, enrichment and insertion.
// It keeps no mutable state between calls; concurrent duplicates are
// settled by the store's uniqueness constraint.
type Service struct {
	store    queueStore
	resolver definitionResolver
	cfg      config.QueueConfig
	now      func() time.Time
	log      *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(
	log *slog.Logger,
	store queueStore,
	resolver definitionResolver,
	cfg config.QueueConfig,
) *Service {
	if cfg.MaxWordLength <= 0 {
		cfg.MaxWordLength = domain.MaxTextLength
	}
	if cfg.DefaultDeck == "" {
		cfg.DefaultDeck = domain.DefaultBucket
	}
	if cfg.DefaultNoteType == "" {
		cfg.DefaultNoteType = domain.DefaultKind
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = domain.DefaultLanguage
	}
	return &Service{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		now:      time.Now,
		log:      log.With("service", "ingest"),
	}
}

func preview(s string) string {
	if len(s) > 50 {
		return s[:50]
	}
	return s
}
