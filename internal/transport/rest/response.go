package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/heartmarshall/wordqueue/internal/domain"
	"github.com/heartmarshall/wordqueue/internal/service/ingest"
)

// Client-facing messages for queue store failures.
const (
	msgSchemaMissing = "queue table missing"
	msgCredentials   = "queue store credentials rejected"
	msgUnavailable   = "queue store unavailable"
)

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, ve *domain.ValidationError) {
	parts := make([]string, 0, len(ve.Errors))
	fields := make([]fieldError, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
		fields = append(fields, fieldError{Field: fe.Field, Message: fe.Message})
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:  strings.Join(parts, "; "),
		Fields: fields,
	})
}

// storeErrorMessage maps an ingestion error to a client message. ok is
// false for errors the handler does not recognize.
func storeErrorMessage(err error) (string, bool) {
	var se *ingest.StoreError
	if !errors.As(err, &se) {
		return "", false
	}
	switch se.Kind {
	case ingest.StoreSchemaMissing:
		return msgSchemaMissing, true
	case ingest.StoreCredentialsInvalid:
		return msgCredentials, true
	default:
		return msgUnavailable, true
	}
}
