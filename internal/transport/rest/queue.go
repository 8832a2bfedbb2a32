package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/wordqueue/internal/domain"
	"github.com/heartmarshall/wordqueue/internal/service/ingest"
	"github.com/heartmarshall/wordqueue/pkg/ctxutil"
)

const maxBodyBytes = 64 << 10

type ingestService interface {
	Submit(ctx context.Context, in ingest.SubmitInput) (*ingest.Result, error)
	ListRecent(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	Stats(ctx context.Context) (domain.QueueStats, error)
}

// QueueHandler serves the ingestion API.
type QueueHandler struct {
	svc ingestService
	log *slog.Logger
}

// NewQueueHandler creates a QueueHandler.
func NewQueueHandler(svc ingestService, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{svc: svc, log: logger.With("handler", "queue")}
}

type submitRequest struct {
	Word     string   `json:"word"`
	Tags     []string `json:"tags"`
	Deck     string   `json:"deck"`
	NoteType string   `json:"note_type"`
	Language string   `json:"language"`
}

// submitResponse is the body of a successful POST. Language and tags are
// only reported for newly queued entries.
type submitResponse struct {
	Status          string   `json:"status"`
	ID              int64    `json:"id"`
	Word            string   `json:"word"`
	NormalizedWord  string   `json:"normalized_word"`
	Definition      *string  `json:"definition"`
	ResolutionError *string  `json:"resolution_error"`
	Language        string   `json:"language,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

type entryResponse struct {
	ID              int64      `json:"id"`
	Word            string     `json:"word"`
	NormalizedWord  string     `json:"normalized_word"`
	Definition      *string    `json:"definition"`
	ResolutionError *string    `json:"resolution_error"`
	Language        string     `json:"language"`
	Tags            []string   `json:"tags"`
	Deck            string     `json:"deck"`
	NoteType        string     `json:"note_type"`
	CreatedAt       time.Time  `json:"created_at"`
	DeliveredAt     *time.Time `json:"delivered_at"`
	DeliveryError   *string    `json:"delivery_error"`
}

type listResponse struct {
	Entries []entryResponse `json:"entries"`
	Count   int             `json:"count"`
}

type statsResponse struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
}

// Submit handles POST /api/queue.
func (h *QueueHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.svc.Submit(r.Context(), ingest.SubmitInput{
		Word:     req.Word,
		Tags:     req.Tags,
		Deck:     req.Deck,
		NoteType: req.NoteType,
		Language: req.Language,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	source, _ := ctxutil.AuthSourceFromCtx(r.Context())
	h.log.InfoContext(r.Context(), "submission handled",
		slog.String("status", string(res.Status)),
		slog.Int64("entry_id", res.Entry.ID),
		slog.String("auth", source),
	)

	writeJSON(w, http.StatusOK, toSubmitResponse(res))
}

// List handles GET /api/queue?limit=N.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeValidationError(w, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	entries, err := h.svc.ListRecent(r.Context(), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := listResponse{Entries: make([]entryResponse, 0, len(entries)), Count: len(entries)}
	for i := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(&entries[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/queue/stats.
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Total:     stats.Total,
		Delivered: stats.Delivered,
		Pending:   stats.Pending,
		Failed:    stats.Failed,
	})
}

func (h *QueueHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeValidationError(w, ve)
		return
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if msg, ok := storeErrorMessage(err); ok {
		h.log.ErrorContext(r.Context(), "queue store error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func resolutionErrorString(k *domain.ResolutionErrorKind) *string {
	if k == nil {
		return nil
	}
	s := k.String()
	return &s
}

func toSubmitResponse(res *ingest.Result) submitResponse {
	e := res.Entry
	resp := submitResponse{
		Status:          string(res.Status),
		ID:              e.ID,
		Word:            e.Front(),
		NormalizedWord:  e.CanonicalKey,
		Definition:      e.Definition,
		ResolutionError: resolutionErrorString(e.ResolutionError),
	}
	if res.Status == ingest.StatusQueued {
		resp.Language = e.Language
		resp.Tags = e.Tags
	}
	return resp
}

func toEntryResponse(e *domain.QueueEntry) entryResponse {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return entryResponse{
		ID:              e.ID,
		Word:            e.Front(),
		NormalizedWord:  e.CanonicalKey,
		Definition:      e.Definition,
		ResolutionError: resolutionErrorString(e.ResolutionError),
		Language:        e.Language,
		Tags:            tags,
		Deck:            e.Bucket,
		NoteType:        e.Kind,
		CreatedAt:       e.CreatedAt,
		DeliveredAt:     e.DeliveredAt,
		DeliveryError:   e.DeliveryError,
	}
}
