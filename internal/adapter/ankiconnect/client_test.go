package ankiconnect

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/heartmarshall/wordqueue/internal/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedRequest struct {
	Action  string          `json:"action"`
	Version int             `json:"version"`
	Key     string          `json:"key"`
	Params  json.RawMessage `json:"params"`
}

// fakeAnki answers each action with a canned result or error.
type fakeAnki struct {
	mu       sync.Mutex
	requests []recordedRequest
	results  map[string]any
	errs     map[string]string
}

func (f *fakeAnki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req recordedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	resp := map[string]any{"result": f.results[req.Action], "error": nil}
	if msg, ok := f.errs[req.Action]; ok {
		resp = map[string]any{"result": nil, "error": msg}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeAnki) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, f *fakeAnki) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(config.SyncConfig{
		AnkiConnectURL: srv.URL,
		AnkiConnectKey: "secret",
		RequestTimeout: time.Second,
	}, newTestLogger())
}

func TestClient_Version(t *testing.T) {
	t.Parallel()

	f := &fakeAnki{results: map[string]any{"version": 6}}
	v, err := newTestClient(t, f).Version(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 6 {
		t.Errorf("Version() = %d, want 6", v)
	}

	reqs := f.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	if reqs[0].Action != "version" || reqs[0].Version != APIVersion || reqs[0].Key != "secret" {
		t.Errorf("request = %+v", reqs[0])
	}
}

func TestClient_Version_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(config.SyncConfig{AnkiConnectURL: url, RequestTimeout: time.Second}, newTestLogger())
	_, err := c.Version(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error = %v, want ErrUnreachable", err)
	}
}

func TestClient_HTTPStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(config.SyncConfig{AnkiConnectURL: srv.URL, RequestTimeout: time.Second}, newTestLogger())
	if _, err := c.Version(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}

func TestClient_AddNote(t *testing.T) {
	t.Parallel()

	f := &fakeAnki{results: map[string]any{"addNote": 1496198395707}}
	id, err := newTestClient(t, f).AddNote(context.Background(),
		"Main", "WordDefinition", "Hello", "a greeting", []string{"dom_words", "lang_en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1496198395707 {
		t.Errorf("id = %d", id)
	}

	var params struct {
		Note struct {
			DeckName  string            `json:"deckName"`
			ModelName string            `json:"modelName"`
			Fields    map[string]string `json:"fields"`
			Tags      []string          `json:"tags"`
		} `json:"note"`
	}
	if err := json.Unmarshal(f.Requests()[0].Params, &params); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	n := params.Note
	if n.DeckName != "Main" || n.ModelName != "WordDefinition" {
		t.Errorf("deck/model = %q/%q", n.DeckName, n.ModelName)
	}
	if n.Fields["Front"] != "Hello" || n.Fields["Back"] != "a greeting" {
		t.Errorf("fields = %v", n.Fields)
	}
	if len(n.Tags) != 2 {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestClient_AddNote_ActionError(t *testing.T) {
	t.Parallel()

	f := &fakeAnki{errs: map[string]string{"addNote": "cannot create note because it is a duplicate"}}
	_, err := newTestClient(t, f).AddNote(context.Background(), "Main", "WordDefinition", "Hello", "x", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "ankiconnect addNote: cannot create note because it is a duplicate"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestClient_FindDuplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		results map[string]any
		wantID  int64
		wantOK  bool
		wantReq int
	}{
		{
			name:    "no candidates",
			results: map[string]any{"findNotes": []int64{}},
			wantReq: 1,
		},
		{
			name: "verified match",
			results: map[string]any{
				"findNotes": []int64{11, 12},
				"notesInfo": []map[string]any{
					{"noteId": 11, "fields": map[string]any{"Front": map[string]any{"value": "Hellos", "order": 0}}},
					{"noteId": 12, "fields": map[string]any{"Front": map[string]any{"value": " HELLO ", "order": 0}}},
				},
			},
			wantID:  12,
			wantOK:  true,
			wantReq: 2,
		},
		{
			name: "candidates without exact front",
			results: map[string]any{
				"findNotes": []int64{11},
				"notesInfo": []map[string]any{
					{"noteId": 11, "fields": map[string]any{"Front": map[string]any{"value": "hellö", "order": 0}}},
				},
			},
			wantReq: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &fakeAnki{results: tt.results}
			id, ok, err := newTestClient(t, f).FindDuplicate(context.Background(), "  Hello", "WordDefinition")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("FindDuplicate() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}

			reqs := f.Requests()
			if len(reqs) != tt.wantReq {
				t.Fatalf("requests = %d, want %d", len(reqs), tt.wantReq)
			}
			var params struct {
				Query string `json:"query"`
			}
			json.Unmarshal(reqs[0].Params, &params)
			if want := `note:"WordDefinition" "Front:hello"`; params.Query != want {
				t.Errorf("query = %q, want %q", params.Query, want)
			}
		})
	}
}

func TestClient_FindDuplicate_LookupError(t *testing.T) {
	t.Parallel()

	f := &fakeAnki{errs: map[string]string{"findNotes": "collection is not available"}}
	_, _, err := newTestClient(t, f).FindDuplicate(context.Background(), "hello", "WordDefinition")
	if err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestDuplicateQuery_Escaping(t *testing.T) {
	t.Parallel()

	got := duplicateQuery(`say "cheese"_*`, `My "Type"`)
	want := `note:"My \"Type\"" "Front:say \"cheese\"\_\*"`
	if got != want {
		t.Errorf("duplicateQuery() = %q, want %q", got, want)
	}
}
