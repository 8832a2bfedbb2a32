package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// Submit validates, deduplicates and queues one word or phrase.
//
// Errors are either a *domain.ValidationError (nothing was read or written)
// or a *StoreError. Definition lookup failures are recorded on the entry
// and never returned.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Result, error) {
	sub, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByKey(ctx, sub.key, sub.bucket, sub.kind)
	switch {
	case err == nil:
		return s.alreadyQueued(ctx, existing, "precheck"), nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, newStoreError("find", err)
	}

	resolution := s.resolver.Resolve(ctx, sub.display, sub.language)

	now := s.now().UTC()
	entry := &domain.QueueEntry{
		RawText:         sub.raw,
		CanonicalKey:    sub.key,
		Language:        sub.language,
		Tags:            sub.tags,
		Bucket:          sub.bucket,
		Kind:            sub.kind,
		CreatedAt:       now,
		Definition:      resolution.Definition,
		ResolutionError: resolution.Err,
	}
	if resolution.Definition != nil {
		entry.ResolvedAt = &now
	}

	inserted, err := s.store.Insert(ctx, entry)
	if errors.Is(err, domain.ErrAlreadyExists) {
		winner, findErr := s.store.FindByKey(ctx, sub.key, sub.bucket, sub.kind)
		if findErr != nil {
			return nil, newStoreError("find", findErr)
		}
		return s.alreadyQueued(ctx, winner, "conflict"), nil
	}
	if err != nil {
		return nil, newStoreError("insert", err)
	}

	attrs := []any{
		slog.Int64("entry_id", inserted.ID),
		slog.String("word", preview(sub.display)),
		slog.String("language", sub.language),
		slog.Bool("resolved", inserted.Definition != nil),
	}
	if inserted.ResolutionError != nil {
		attrs = append(attrs, slog.String("resolution_error", inserted.ResolutionError.String()))
	}
	s.log.InfoContext(ctx, "entry queued", attrs...)

	return &Result{Status: StatusQueued, Entry: inserted}, nil
}

func (s *Service) alreadyQueued(ctx context.Context, entry *domain.QueueEntry, via string) *Result {
	s.log.InfoContext(ctx, "entry already queued",
		slog.Int64("entry_id", entry.ID),
		slog.String("word", preview(entry.Front())),
		slog.String("via", via),
	)
	return &Result{Status: StatusAlreadyQueued, Entry: entry}
}
