package domain

import "time"

// Defaults applied when a submission leaves the field empty.
const (
	DefaultBucket   = "Main"
	DefaultKind     = "WordDefinition"
	DefaultLanguage = "en"
)

// QueueEntry is a word or phrase waiting to be delivered to the flashcard app.
type QueueEntry struct {
	ID           int64
	RawText      string
	CanonicalKey string
	Language     string
	Definition   *string
	Tags         []string
	Bucket       string
	Kind         string
	CreatedAt    time.Time

	ResolvedAt      *time.Time
	ResolutionError *ResolutionErrorKind

	DeliveredAt   *time.Time
	DeliveryError *string
}

// IsDelivered reports whether the sync agent has already delivered the entry.
func (e *QueueEntry) IsDelivered() bool {
	return e.DeliveredAt != nil
}

// Front returns the text shown on the front of the card.
func (e *QueueEntry) Front() string {
	return DisplayText(e.RawText)
}

// Back returns the definition or an empty string.
func (e *QueueEntry) Back() string {
	if e.Definition == nil {
		return ""
	}
	return *e.Definition
}

// Resolution is the outcome of one definition lookup. At most one of
// Definition and Err is set; both are nil when no lookup was attempted.
type Resolution struct {
	Definition *string
	Err        *ResolutionErrorKind
}

// Attempted reports whether a provider call was made.
func (r Resolution) Attempted() bool {
	return r.Definition != nil || r.Err != nil
}

// QueueStats holds aggregate counts over the whole queue.
type QueueStats struct {
	Total     int
	Delivered int
	Pending   int
	Failed    int
}
