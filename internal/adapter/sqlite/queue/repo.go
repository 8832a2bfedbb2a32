// Package queue implements the word queue store on SQLite.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/heartmarshall/wordqueue/internal/adapter/sqlite"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

const table = "queue_entries"

var columns = []string{
	"id", "raw_text", "canonical_key", "language", "definition", "tags",
	"bucket", "kind", "created_at", "resolved_at", "resolution_error",
	"delivered_at", "delivery_error",
}

const statsSQL = `SELECT
	count(*),
	count(delivered_at),
	coalesce(sum(delivered_at IS NULL), 0),
	coalesce(sum(delivered_at IS NULL AND delivery_error IS NOT NULL), 0)
FROM queue_entries`

// Repo provides queue entry persistence backed by SQLite.
// Timestamps are stored as UTC unix microseconds and tags as a JSON array.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new queue repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

// FindByKey returns the entry with the given uniqueness key.
// Returns domain.ErrNotFound if there is none.
func (r *Repo) FindByKey(ctx context.Context, canonicalKey, bucket, kind string) (*domain.QueueEntry, error) {
	query, args, err := squirrel.Select(columns...).
		From(table).
		Where(squirrel.Eq{"canonical_key": canonicalKey, "bucket": bucket, "kind": kind}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, sqlite.MapError(err, "queue_entry", canonicalKey)
	}
	return entry, nil
}

// Insert stores a new entry and returns it with the assigned ID.
// Returns domain.ErrAlreadyExists when the uniqueness key is taken.
func (r *Repo) Insert(ctx context.Context, e *domain.QueueEntry) (*domain.QueueEntry, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	var resolutionErr *string
	if e.ResolutionError != nil {
		s := e.ResolutionError.String()
		resolutionErr = &s
	}

	query, args, err := squirrel.Insert(table).
		Columns(
			"raw_text", "canonical_key", "language", "definition", "tags",
			"bucket", "kind", "created_at", "resolved_at", "resolution_error",
		).
		Values(
			e.RawText, e.CanonicalKey, e.Language, e.Definition, string(tagsJSON),
			e.Bucket, e.Kind, toMicros(e.CreatedAt), toNullMicros(e.ResolvedAt), resolutionErr,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "queue_entry", e.CanonicalKey)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, sqlite.MapError(err, "queue_entry", e.CanonicalKey)
	}

	out := *e
	out.ID = id
	out.Tags = tags
	out.CreatedAt = fromMicros(toMicros(e.CreatedAt))
	return &out, nil
}

// ListUndelivered returns entries not yet delivered, oldest first.
// A limit <= 0 returns all of them.
func (r *Repo) ListUndelivered(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	q := squirrel.Select(columns...).
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
	q := squirrel.Select(columns...).
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

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "queue_entries", "list")
	}
	defer rows.Close()

	entries := []domain.QueueEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, sqlite.MapError(err, "queue_entries", "list")
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "queue_entries", "list")
	}
	return entries, nil
}

// MarkDelivered sets delivered_at and clears any recorded delivery error.
// Returns domain.ErrNotFound if the entry does not exist or was already delivered.
func (r *Repo) MarkDelivered(ctx context.Context, id int64) error {
	query, args, err := squirrel.Update(table).
		Set("delivered_at", toMicros(r.now())).
		Set("delivery_error", squirrel.Expr("NULL")).
		Where(squirrel.Eq{"id": id, "delivered_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark query: %w", err)
	}
	return r.execOne(ctx, id, query, args)
}

// RecordDeliveryError stores the last delivery failure for an undelivered entry.
func (r *Repo) RecordDeliveryError(ctx context.Context, id int64, msg string) error {
	query, args, err := squirrel.Update(table).
		Set("delivery_error", msg).
		Where(squirrel.Eq{"id": id, "delivered_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record error query: %w", err)
	}
	return r.execOne(ctx, id, query, args)
}

func (r *Repo) execOne(ctx context.Context, id int64, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return sqlite.MapError(err, "queue_entry", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return sqlite.MapError(err, "queue_entry", id)
	}
	if n == 0 {
		return fmt.Errorf("queue_entry %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteDeliveredBefore removes entries delivered before threshold and
// returns how many rows were deleted.
func (r *Repo) DeleteDeliveredBefore(ctx context.Context, threshold time.Time) (int64, error) {
	query, args, err := squirrel.Delete(table).
		Where(squirrel.NotEq{"delivered_at": nil}).
		Where(squirrel.Lt{"delivered_at": toMicros(threshold)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, sqlite.MapError(err, "queue_entries", "delete delivered")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, sqlite.MapError(err, "queue_entries", "delete delivered")
	}
	return n, nil
}

// Stats returns aggregate counts over the whole queue.
func (r *Repo) Stats(ctx context.Context) (domain.QueueStats, error) {
	var s domain.QueueStats
	err := r.db.QueryRowContext(ctx, statsSQL).Scan(&s.Total, &s.Delivered, &s.Pending, &s.Failed)
	if err != nil {
		return domain.QueueStats{}, sqlite.MapError(err, "queue_entries", "stats")
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Row mapping
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.QueueEntry, error) {
	var (
		e               domain.QueueEntry
		definition      sql.NullString
		tagsJSON        string
		createdAt       int64
		resolvedAt      sql.NullInt64
		resolutionError sql.NullString
		deliveredAt     sql.NullInt64
		deliveryError   sql.NullString
	)

	err := s.Scan(
		&e.ID, &e.RawText, &e.CanonicalKey, &e.Language, &definition, &tagsJSON,
		&e.Bucket, &e.Kind, &createdAt, &resolvedAt, &resolutionError,
		&deliveredAt, &deliveryError,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of entry %d: %w", e.ID, err)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}

	e.CreatedAt = fromMicros(createdAt)
	if definition.Valid {
		e.Definition = &definition.String
	}
	if resolvedAt.Valid {
		t := fromMicros(resolvedAt.Int64)
		e.ResolvedAt = &t
	}
	if resolutionError.Valid {
		kind := domain.ResolutionErrorKind(resolutionError.String)
		e.ResolutionError = &kind
	}
	if deliveredAt.Valid {
		t := fromMicros(deliveredAt.Int64)
		e.DeliveredAt = &t
	}
	if deliveryError.Valid {
		e.DeliveryError = &deliveryError.String
	}
	return &e, nil
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func toNullMicros(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := toMicros(*t)
	return &v
}

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }
