package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// MapError converts database/sql and modernc errors to domain errors.
// Context errors pass through unchanged; anything unclassified is
// domain.ErrStoreUnavailable.
func MapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
	}

	var sqlErr *sqlitedrv.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		msg := sqlErr.Error()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "UNIQUE constraint failed"):
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrAlreadyExists)
		case code == sqlite3.SQLITE_CONSTRAINT_CHECK,
			code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "CHECK constraint failed"):
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrValidation)
		case code&0xff == sqlite3.SQLITE_AUTH, code&0xff == sqlite3.SQLITE_PERM, code&0xff == sqlite3.SQLITE_READONLY:
			return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrStoreCredentials, err)
		}
	}

	// SQLite reports a missing table as a generic SQLITE_ERROR.
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrSchemaMissing, err)
	}

	return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrStoreUnavailable, err)
}
