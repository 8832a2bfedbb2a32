package syncer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/heartmarshall/wordqueue/internal/adapter/export"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

// runFile builds one import artifact for the batch. Entries are marked only
// after the file is in place; if the write fails nothing is marked.
func (a *Agent) runFile(ctx context.Context, entries []domain.QueueEntry, opts RunOptions, report *Report) error {
	batch := export.NewBatch()
	report.Items = make([]ReportItem, 0, len(entries))
	var pending []int

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := &entries[i]
		report.Items = append(report.Items, newItem(e))
		idx := len(report.Items) - 1
		item := &report.Items[idx]

		if a.missingDefinition(e) {
			a.fail(ctx, e, item, msgMissingDefinition, opts.DryRun, report)
			continue
		}

		added := batch.Add(export.Record{
			NoteType: item.NoteType,
			Deck:     item.Deck,
			Front:    item.Front,
			Back:     item.Back,
			Tags:     item.Tags,
		})
		if !added {
			item.Outcome = OutcomeSkipped
		} else {
			item.Outcome = OutcomePlanned
		}
		pending = append(pending, idx)
	}

	if opts.DryRun {
		for _, idx := range pending {
			if report.Items[idx].Outcome == OutcomeSkipped {
				report.Skipped++
			} else {
				report.Delivered++
			}
		}
		return nil
	}

	if batch.Len() == 0 {
		return nil
	}

	path := opts.OutputPath
	if path == "" {
		path = filepath.Join(a.cfg.OutputDir, "anki-"+a.now().UTC().Format("20060102-150405")+".txt")
	}
	if err := batch.WriteFile(path); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	report.OutputPath = path

	for _, idx := range pending {
		a.mark(ctx, &entries[idx], &report.Items[idx], report)
	}
	return nil
}
