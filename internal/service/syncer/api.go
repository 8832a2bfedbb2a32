package syncer

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// runAPI delivers each entry through AnkiConnect, marking it right after
// the note is created or found.
func (a *Agent) runAPI(ctx context.Context, entries []domain.QueueEntry, opts RunOptions, report *Report) error {
	report.Items = make([]ReportItem, 0, len(entries))

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := &entries[i]
		report.Items = append(report.Items, newItem(e))
		item := &report.Items[len(report.Items)-1]

		if a.missingDefinition(e) {
			a.fail(ctx, e, item, msgMissingDefinition, opts.DryRun, report)
			continue
		}

		noteID, found, err := a.target.FindDuplicate(ctx, item.Front, item.NoteType)
		if err != nil {
			a.fail(ctx, e, item, "duplicate lookup: "+err.Error(), opts.DryRun, report)
			continue
		}
		if found {
			item.NoteID = noteID
			item.Outcome = OutcomeSkipped
			a.log.InfoContext(ctx, "duplicate note found",
				slog.Int64("entry_id", e.ID),
				slog.Int64("note_id", noteID),
			)
			if opts.DryRun {
				report.Skipped++
				continue
			}
			a.mark(ctx, e, item, report)
			continue
		}

		if opts.DryRun {
			item.Outcome = OutcomePlanned
			report.Delivered++
			continue
		}

		noteID, err = a.target.AddNote(ctx, item.Deck, item.NoteType, item.Front, item.Back, item.Tags)
		if err != nil {
			a.fail(ctx, e, item, "add note: "+err.Error(), false, report)
			continue
		}
		item.NoteID = noteID
		a.log.InfoContext(ctx, "note added",
			slog.Int64("entry_id", e.ID),
			slog.Int64("note_id", noteID),
		)
		a.mark(ctx, e, item, report)
	}
	return nil
}
