package syncer

import "github.com/heartmarshall/wordqueue/internal/domain"

// Outcome is the per-entry result of a run.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	// OutcomePlanned marks an entry a dry run would deliver.
	OutcomePlanned Outcome = "planned"
)

// ReportItem describes what happened to one entry.
type ReportItem struct {
	EntryID  int64    `json:"entry_id"`
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Deck     string   `json:"deck"`
	NoteType string   `json:"note_type"`
	Tags     []string `json:"tags"`
	Outcome  Outcome  `json:"outcome"`
	// NoteID is the Anki note created or found as duplicate (API mode).
	NoteID int64  `json:"note_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes a run. In a dry run Delivered and Skipped count what
// would have happened.
type Report struct {
	Mode       string       `json:"mode"`
	DryRun     bool         `json:"dry_run"`
	Fetched    int          `json:"fetched"`
	Delivered  int          `json:"delivered"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	OutputPath string       `json:"output_path,omitempty"`
	Items      []ReportItem `json:"items"`
}

// HasFailures reports whether any entry failed.
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

func newItem(e *domain.QueueEntry) ReportItem {
	return ReportItem{
		EntryID:  e.ID,
		Front:    e.Front(),
		Back:     e.Back(),
		Deck:     e.Bucket,
		NoteType: e.Kind,
		Tags:     e.Tags,
	}
}
