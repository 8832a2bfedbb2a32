// Package ankiconnect talks to the AnkiConnect add-on's JSON-over-HTTP API.
package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

// APIVersion is the AnkiConnect protocol version every request declares.
const APIVersion = 6

const maxResponseBytes = 1 << 20

// ErrUnreachable is returned when AnkiConnect does not answer a request.
var ErrUnreachable = errors.New("ankiconnect unreachable")

// Client sends actions to one AnkiConnect endpoint.
type Client struct {
	url        string
	key        string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client for cfg.AnkiConnectURL with cfg.RequestTimeout
// applied to every request.
func NewClient(cfg config.SyncConfig, logger *slog.Logger) *Client {
	return &Client{
		url:        cfg.AnkiConnectURL,
		key:        cfg.AnkiConnectKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        logger.With("adapter", "ankiconnect"),
	}
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Key     string `json:"key,omitempty"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke performs one action and decodes its result into out (if non-nil).
func (c *Client) invoke(ctx context.Context, action string, params, out any) error {
	body, err := json.Marshal(request{Action: action, Version: APIVersion, Key: c.key, Params: params})
	if err != nil {
		return fmt.Errorf("ankiconnect %s: encode request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ankiconnect %s: create request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.DebugContext(ctx, "ankiconnect request", slog.String("action", action))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ankiconnect %s: %w: %w", action, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ankiconnect %s: unexpected status %d", action, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("ankiconnect %s: read body: %w", action, err)
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return fmt.Errorf("ankiconnect %s: decode json: %w", action, err)
	}
	if r.Error != nil {
		return fmt.Errorf("ankiconnect %s: %s", action, *r.Error)
	}

	if out != nil {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("ankiconnect %s: decode result: %w", action, err)
		}
	}
	return nil
}

// Version returns the protocol version reported by AnkiConnect. It doubles
// as the reachability check before a run.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.invoke(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// FindNotes returns the ids of notes matching an Anki search query.
func (c *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	err := c.invoke(ctx, "findNotes", map[string]any{"query": query}, &ids)
	return ids, err
}

// NoteField is one field of a note as returned by notesInfo.
type NoteField struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// NoteInfo is one element of a notesInfo result.
type NoteInfo struct {
	NoteID    int64                `json:"noteId"`
	ModelName string               `json:"modelName"`
	Tags      []string             `json:"tags"`
	Fields    map[string]NoteField `json:"fields"`
}

// NotesInfo returns details for the given note ids.
func (c *Client) NotesInfo(ctx context.Context, ids []int64) ([]NoteInfo, error) {
	var notes []NoteInfo
	err := c.invoke(ctx, "notesInfo", map[string]any{"notes": ids}, &notes)
	return notes, err
}

type addNoteParams struct {
	Note note `json:"note"`
}

type note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

// AddNote creates a Front/Back note and returns its id.
func (c *Client) AddNote(ctx context.Context, deck, noteType, front, back string, tags []string) (int64, error) {
	var id *int64
	err := c.invoke(ctx, "addNote", addNoteParams{Note: note{
		DeckName:  deck,
		ModelName: noteType,
		Fields:    map[string]string{"Front": front, "Back": back},
		Tags:      tags,
	}}, &id)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, fmt.Errorf("ankiconnect addNote: note was not created")
	}
	return *id, nil
}

// FindDuplicate looks for an existing note of noteType whose Front field
// matches front after normalization. The search narrows candidates and
// notesInfo confirms the match, since Anki search is wildcard-aware and
// accent-folding.
func (c *Client) FindDuplicate(ctx context.Context, front, noteType string) (int64, bool, error) {
	want := domain.Normalize(front)

	ids, err := c.FindNotes(ctx, duplicateQuery(want, noteType))
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}

	notes, err := c.NotesInfo(ctx, ids)
	if err != nil {
		return 0, false, err
	}
	for _, n := range notes {
		if f, ok := n.Fields["Front"]; ok && domain.Normalize(f.Value) == want {
			return n.NoteID, true, nil
		}
	}
	return 0, false, nil
}

func duplicateQuery(front, noteType string) string {
	return fmt.Sprintf(`note:"%s" "Front:%s"`, escapeSearch(noteType), escapeSearch(front))
}

var searchEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`*`, `\*`,
	`_`, `\_`,
)

func escapeSearch(s string) string {
	return searchEscaper.Replace(s)
}
