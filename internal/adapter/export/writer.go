// Package export writes queue entries as an Anki "Notes in Plain Text" file.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// header tells the Anki importer how to read the columns that follow.
var header = []string{
	"#separator:tab",
	"#html:false",
	"#notetype column:1",
	"#deck column:2",
	"#tags column:5",
}

// Record is one note line.
type Record struct {
	NoteType string
	Deck     string
	Front    string
	Back     string
	Tags     []string
}

type recordKey struct {
	front, back, deck, noteType string
}

func (r Record) key() recordKey {
	return recordKey{front: r.Front, back: r.Back, deck: r.Deck, noteType: r.NoteType}
}

// Batch collects records in insertion order and drops exact duplicates.
type Batch struct {
	records []Record
	seen    map[recordKey]struct{}
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{seen: make(map[recordKey]struct{})}
}

// Add appends r unless a record with the same front, back, deck and note
// type is already in the batch. It reports whether r was added.
func (b *Batch) Add(r Record) bool {
	k := r.key()
	if _, dup := b.seen[k]; dup {
		return false
	}
	b.seen[k] = struct{}{}
	b.records = append(b.records, r)
	return true
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int { return len(b.records) }

// Encode writes the header and one tab-separated line per record.
// Fields containing tabs, quotes or newlines are quoted.
func (b *Batch) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range header {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	cw := csv.NewWriter(bw)
	cw.Comma = '\t'
	for _, r := range b.records {
		if err := cw.Write([]string{r.NoteType, r.Deck, r.Front, r.Back, strings.Join(r.Tags, " ")}); err != nil {
			return fmt.Errorf("write record %q: %w", r.Front, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return bw.Flush()
}

// WriteFile writes the batch to path atomically: the content goes to a
// temporary file in the same directory, is synced, then renamed over path.
func (b *Batch) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := b.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
