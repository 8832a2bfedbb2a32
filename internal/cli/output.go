package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/heartmarshall/wordqueue/internal/service/syncer"
)

// backPreview is how much of a definition a dry-run line shows.
const backPreview = 50

func writeReport(w io.Writer, format string, r *syncer.Report) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(r)
	}

	for _, it := range r.Items {
		if _, err := fmt.Fprintln(w, itemLine(r.DryRun, it)); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("mode=%s fetched=%d delivered=%d skipped=%d failed=%d",
		r.Mode, r.Fetched, r.Delivered, r.Skipped, r.Failed)
	if r.DryRun {
		summary = "[dry-run] " + summary
	}
	if r.OutputPath != "" {
		summary += " output=" + r.OutputPath
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func itemLine(dryRun bool, it syncer.ReportItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-9s #%d %s", it.Outcome, it.EntryID, it.Front)
	if dryRun {
		fmt.Fprintf(&b, " -> %s | deck=%s | tags=%s", truncate(it.Back, backPreview), it.Deck, strings.Join(it.Tags, " "))
	}
	if it.Error != "" {
		b.WriteString(" | error: ")
		b.WriteString(it.Error)
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
