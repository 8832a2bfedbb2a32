package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped, they pass through.
// Anything the database did not classify is reported as domain.ErrStoreUnavailable.
func MapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrAlreadyExists)
		case "23514": // check_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrValidation)
		case "42P01", "3F000": // undefined_table, invalid_schema_name
			return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrSchemaMissing, err)
		case "28P01", "28000", "42501": // invalid_password, invalid_authorization, insufficient_privilege
			return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrStoreCredentials, err)
		}
	}

	return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrStoreUnavailable, err)
}
