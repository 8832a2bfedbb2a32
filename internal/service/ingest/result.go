package ingest

import (
	"errors"
	"fmt"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// Status is the terminal state of a submission.
type Status string

const (
	StatusQueued        Status = "queued"
	StatusAlreadyQueued Status = "already_queued"
)

// Result is returned by Submit. Entry is the stored row: the new one for
// StatusQueued, the existing one for StatusAlreadyQueued.
type Result struct {
	Status Status
	Entry  *domain.QueueEntry
}

// StoreErrorKind classifies an infrastructure failure of the queue store.
type StoreErrorKind string

const (
	StoreSchemaMissing      StoreErrorKind = "schema_missing"
	StoreCredentialsInvalid StoreErrorKind = "credentials_invalid"
	StoreUnavailable        StoreErrorKind = "unavailable"
)

// StoreError reports that the queue store could not serve the request.
// No entry was created.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("queue store %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func newStoreError(op string, err error) *StoreError {
	kind := StoreUnavailable
	switch {
	case errors.Is(err, domain.ErrSchemaMissing):
		kind = StoreSchemaMissing
	case errors.Is(err, domain.ErrStoreCredentials):
		kind = StoreCredentialsInvalid
	}
	return &StoreError{Kind: kind, Op: op, Err: err}
}
