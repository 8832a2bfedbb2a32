// Package syncer delivers undelivered queue entries to Anki, either as an
// import file or through AnkiConnect, and records the outcome per entry.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

// Delivery error recorded for entries without a definition.
const msgMissingDefinition = "missing definition"

type queueStore interface {
	ListUndelivered(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	MarkDelivered(ctx context.Context, id int64) error
	RecordDeliveryError(ctx context.Context, id int64, msg string) error
}

type ankiTarget interface {
	Version(ctx context.Context) (int, error)
	FindDuplicate(ctx context.Context, front, noteType string) (int64, bool, error)
	AddNote(ctx context.Context, deck, noteType, front, back string, tags []string) (int64, error)
}

// Agent runs one sync batch at a time. Runs are not leased: two agents
// running against the same store concurrently may deliver an entry twice.
type Agent struct {
	store  queueStore
	target ankiTarget
	cfg    config.SyncConfig
	now    func() time.Time
	log    *slog.Logger
}

// NewAgent creates an Agent. target may be nil when only file mode is used.
func NewAgent(log *slog.Logger, store queueStore, target ankiTarget, cfg config.SyncConfig) *Agent {
	return &Agent{
		store:  store,
		target: target,
		cfg:    cfg,
		now:    time.Now,
		log:    log.With("service", "syncer"),
	}
}

// RunOptions controls a single run.
type RunOptions struct {
	// Limit caps the number of entries fetched; 0 means all.
	Limit int
	// DryRun performs lookups but no writes to the store, Anki or disk.
	DryRun bool
	// OutputPath overrides the generated artifact path in file mode.
	OutputPath string
	// Mode overrides the configured delivery mode when non-empty.
	Mode string
}

// Run fetches undelivered entries oldest-first and delivers each one.
//
// The returned error is non-nil only when the batch could not run (target
// unreachable, store unavailable, artifact not written, context cancelled);
// per-entry failures are reported in Report.Items and Report.Failed.
func (a *Agent) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	mode := opts.Mode
	if mode == "" {
		mode = a.cfg.Mode
	}
	report := &Report{Mode: mode, DryRun: opts.DryRun}

	switch mode {
	case config.SyncModeAPI:
		if err := a.ping(ctx); err != nil {
			return report, err
		}
	case config.SyncModeFile:
	default:
		return report, fmt.Errorf("unknown sync mode %q", mode)
	}

	entries, err := a.store.ListUndelivered(ctx, opts.Limit)
	if err != nil {
		return report, fmt.Errorf("list undelivered entries: %w", err)
	}
	report.Fetched = len(entries)

	a.log.InfoContext(ctx, "sync started",
		slog.String("mode", mode),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("fetched", len(entries)),
	)

	if len(entries) > 0 {
		if mode == config.SyncModeAPI {
			err = a.runAPI(ctx, entries, opts, report)
		} else {
			err = a.runFile(ctx, entries, opts, report)
		}
	}

	a.log.InfoContext(ctx, "sync finished",
		slog.String("mode", mode),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("delivered", report.Delivered),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
	)
	return report, err
}

func (a *Agent) ping(ctx context.Context) error {
	if a.target == nil {
		return fmt.Errorf("ankiconnect target not configured")
	}
	v, err := a.target.Version(ctx)
	if err != nil {
		return fmt.Errorf("check ankiconnect: %w", err)
	}
	if v < minAPIVersion {
		return fmt.Errorf("check ankiconnect: version %d is older than %d", v, minAPIVersion)
	}
	return nil
}

const minAPIVersion = 6

// missingDefinition reports whether the entry must be failed before delivery.
func (a *Agent) missingDefinition(e *domain.QueueEntry) bool {
	return a.cfg.RequireDefinition() && e.Back() == ""
}

// fail records msg on the entry (outside dry runs) and counts it as failed.
func (a *Agent) fail(ctx context.Context, e *domain.QueueEntry, item *ReportItem, msg string, dryRun bool, report *Report) {
	item.Outcome = OutcomeFailed
	item.Error = msg
	report.Failed++

	a.log.WarnContext(ctx, "entry not delivered",
		slog.Int64("entry_id", e.ID),
		slog.String("word", item.Front),
		slog.String("error", msg),
	)

	if dryRun {
		return
	}
	if err := a.store.RecordDeliveryError(ctx, e.ID, msg); err != nil {
		a.log.ErrorContext(ctx, "record delivery error failed",
			slog.Int64("entry_id", e.ID),
			slog.String("error", err.Error()),
		)
	}
}

// mark sets delivered_at after a confirmed delivery. A failed mark is
// counted as a failure; the next run delivers the entry again and the
// duplicate check absorbs it.
func (a *Agent) mark(ctx context.Context, e *domain.QueueEntry, item *ReportItem, report *Report) {
	if err := a.store.MarkDelivered(ctx, e.ID); err != nil {
		a.log.ErrorContext(ctx, "mark delivered failed",
			slog.Int64("entry_id", e.ID),
			slog.String("error", err.Error()),
		)
		item.Outcome = OutcomeFailed
		item.Error = "mark delivered: " + err.Error()
		report.Failed++
		return
	}

	switch item.Outcome {
	case OutcomeSkipped:
		report.Skipped++
	default:
		item.Outcome = OutcomeDelivered
		report.Delivered++
	}
}
