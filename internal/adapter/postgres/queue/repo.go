// Package queue implements the word queue store on PostgreSQL.
package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/wordqueue/internal/adapter/postgres"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

const table = "queue_entries"

var columns = []string{
	"id", "raw_text", "canonical_key", "language", "definition", "tags",
	"bucket", "kind", "created_at", "resolved_at", "resolution_error",
	"delivered_at", "delivery_error",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const statsSQL = `SELECT
	count(*)                                                                  AS total,
	count(delivered_at)                                                       AS delivered,
	count(*) FILTER (WHERE delivered_at IS NULL)                              AS pending,
	count(*) FILTER (WHERE delivered_at IS NULL AND delivery_error IS NOT NULL) AS failed
FROM queue_entries`

// Repo provides queue entry persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new queue repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// FindByKey returns the entry with the given uniqueness key.
// Returns domain.ErrNotFound if there is none.
func (r *Repo) FindByKey(ctx context.Context, canonicalKey, bucket, kind string) (*domain.QueueEntry, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(squirrel.Eq{"canonical_key": canonicalKey, "bucket": bucket, "kind": kind}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	var row entryRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("queue_entry %s: %w", canonicalKey, domain.ErrNotFound)
		}
		return nil, postgres.MapError(err, "queue_entry", canonicalKey)
	}

	entry := row.toDomain()
	return &entry, nil
}

// Insert stores a new entry and returns it with the assigned ID.
// Returns domain.ErrAlreadyExists when the uniqueness key is taken.
func (r *Repo) Insert(ctx context.Context, e *domain.QueueEntry) (*domain.QueueEntry, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	query, args, err := psql.Insert(table).
		Columns(
			"raw_text", "canonical_key", "language", "definition", "tags",
			"bucket", "kind", "created_at", "resolved_at", "resolution_error",
		).
		Values(
			e.RawText, e.CanonicalKey, e.Language, e.Definition, tags,
			e.Bucket, e.Kind, e.CreatedAt, e.ResolvedAt, resolutionErrorText(e.ResolutionError),
		).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	var row entryRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "queue_entry", e.CanonicalKey)
	}

	entry := row.toDomain()
	return &entry, nil
}

// ListUndelivered returns entries not yet delivered, oldest first.
// A limit <= 0 returns all of them.
func (r *Repo) ListUndelivered(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	q := psql.Select(columns...).
		From(table).
		Where(squirrel.Eq{"delivered_at": nil}).
		OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.list(ctx, q)
}

// ListRecent returns the newest entries regardless of delivery status.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	q := psql.Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.list(ctx, q)
}

func (r *Repo) list(ctx context.Context, q squirrel.SelectBuilder) ([]domain.QueueEntry, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []entryRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "queue_entries", "list")
	}

	entries := make([]domain.QueueEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].toDomain()
	}
	return entries, nil
}

// MarkDelivered sets delivered_at and clears any recorded delivery error.
// Returns domain.ErrNotFound if the entry does not exist or was already delivered.
func (r *Repo) MarkDelivered(ctx context.Context, id int64) error {
	query, args, err := psql.Update(table).
		Set("delivered_at", squirrel.Expr("now()")).
		Set("delivery_error", squirrel.Expr("NULL")).
		Where(squirrel.Eq{"id": id, "delivered_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "queue_entry", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("queue_entry %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RecordDeliveryError stores the last delivery failure for an undelivered entry.
func (r *Repo) RecordDeliveryError(ctx context.Context, id int64, msg string) error {
	query, args, err := psql.Update(table).
		Set("delivery_error", msg).
		Where(squirrel.Eq{"id": id, "delivered_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record error query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "queue_entry", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("queue_entry %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteDeliveredBefore removes entries delivered before threshold and
// returns how many rows were deleted. Undelivered entries are never touched.
func (r *Repo) DeleteDeliveredBefore(ctx context.Context, threshold time.Time) (int64, error) {
	query, args, err := psql.Delete(table).
		Where(squirrel.NotEq{"delivered_at": nil}).
		Where(squirrel.Lt{"delivered_at": threshold}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, "queue_entries", "delete delivered")
	}
	return tag.RowsAffected(), nil
}

// Stats returns aggregate counts over the whole queue.
func (r *Repo) Stats(ctx context.Context) (domain.QueueStats, error) {
	var total, delivered, pending, failed int64
	if err := r.db.QueryRow(ctx, statsSQL).Scan(&total, &delivered, &pending, &failed); err != nil {
		return domain.QueueStats{}, postgres.MapError(err, "queue_entries", "stats")
	}
	return domain.QueueStats{
		Total:     int(total),
		Delivered: int(delivered),
		Pending:   int(pending),
		Failed:    int(failed),
	}, nil
}

// ---------------------------------------------------------------------------
// Row mapping
// ---------------------------------------------------------------------------

type entryRow struct {
	ID              int64      `db:"id"`
	RawText         string     `db:"raw_text"`
	CanonicalKey    string     `db:"canonical_key"`
	Language        string     `db:"language"`
	Definition      *string    `db:"definition"`
	Tags            []string   `db:"tags"`
	Bucket          string     `db:"bucket"`
	Kind            string     `db:"kind"`
	CreatedAt       time.Time  `db:"created_at"`
	ResolvedAt      *time.Time `db:"resolved_at"`
	ResolutionError *string    `db:"resolution_error"`
	DeliveredAt     *time.Time `db:"delivered_at"`
	DeliveryError   *string    `db:"delivery_error"`
}

func (r entryRow) toDomain() domain.QueueEntry {
	e := domain.QueueEntry{
		ID:            r.ID,
		RawText:       r.RawText,
		CanonicalKey:  r.CanonicalKey,
		Language:      r.Language,
		Definition:    r.Definition,
		Tags:          r.Tags,
		Bucket:        r.Bucket,
		Kind:          r.Kind,
		CreatedAt:     r.CreatedAt,
		ResolvedAt:    r.ResolvedAt,
		DeliveredAt:   r.DeliveredAt,
		DeliveryError: r.DeliveryError,
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if r.ResolutionError != nil {
		kind := domain.ResolutionErrorKind(*r.ResolutionError)
		e.ResolutionError = &kind
	}
	return e
}

func resolutionErrorText(k *domain.ResolutionErrorKind) *string {
	if k == nil {
		return nil
	}
	s := k.String()
	return &s
}
