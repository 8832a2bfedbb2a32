package syncer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/wordqueue/internal/config"
)

func newTestAgent(store queueStore, target ankiTarget, mode string, requireDef bool) *Agent {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAgent(log, store, target, config.SyncConfig{
		Mode:                   mode,
		AllowMissingDefinition: !requireDef,
	})
}

func TestRun_API_ExactlyOnce(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		entry(1, "bonjour", strPtr("hello")),
		entry(2, "break the ice", strPtr("start a conversation")),
	)
	anki := newFakeAnki()
	agent := newTestAgent(store, anki, config.SyncModeAPI, true)

	first, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Fetched)
	assert.Equal(t, 2, first.Delivered)
	assert.Equal(t, 0, first.Failed)
	assert.Equal(t, []string{"bonjour", "break the ice"}, anki.added)

	second, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Fetched)
	assert.Equal(t, 0, second.Delivered)
	assert.Len(t, anki.added, 2)
}

func TestRun_API_FailureInMiddleOfBatch(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		entry(1, "one", strPtr("1")),
		entry(2, "two", strPtr("2")),
		entry(3, "three", strPtr("3")),
		entry(4, "four", strPtr("4")),
		entry(5, "five", strPtr("5")),
	)
	anki := newFakeAnki()
	anki.addErr["three"] = errBoom
	agent := newTestAgent(store, anki, config.SyncModeAPI, true)

	report, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Fetched)
	assert.Equal(t, 4, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.HasFailures())
	assert.ElementsMatch(t, []int64{1, 2, 4, 5}, store.marked)
	assert.Contains(t, store.recorded[3], "add note")
	assert.Equal(t, OutcomeFailed, report.Items[2].Outcome)

	// The failed entry is retried on the next run.
	delete(anki.addErr, "three")
	retry, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Fetched)
	assert.Equal(t, 1, retry.Delivered)
	assert.Nil(t, store.entries[3].DeliveryError)
}

func TestRun_API_DuplicateSkippedAndMarked(t *testing.T) {
	t.Parallel()

	store := newMemStore(entry(1, "Bonjour", strPtr("hello")))
	anki := newFakeAnki()
	anki.notes[noteKey(" bonjour ", "WordDefinition")] = 77
	agent := newTestAgent(store, anki, config.SyncModeAPI, true)

	report, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Delivered)
	assert.Equal(t, int64(77), report.Items[0].NoteID)
	assert.Equal(t, []int64{1}, store.marked)
	assert.Empty(t, anki.added)
}

func TestRun_API_LookupErrorIsPerEntry(t *testing.T) {
	t.Parallel()

	store := newMemStore(entry(1, "one", strPtr("1")), entry(2, "two", strPtr("2")))
	anki := newFakeAnki()
	anki.findErr["one"] = errBoom
	agent := newTestAgent(store, anki, config.SyncModeAPI, true)

	report, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Delivered)
	assert.True(t, strings.HasPrefix(store.recorded[1], "duplicate lookup"))
}

func TestRun_API_MissingDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		requireDef bool
		wantFailed int
	}{
		{name: "required", requireDef: true, wantFailed: 1},
		{name: "optional", requireDef: false, wantFailed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemStore(entry(1, "bonjour", nil))
			agent := newTestAgent(store, newFakeAnki(), config.SyncModeAPI, tt.requireDef)

			report, err := agent.Run(context.Background(), RunOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFailed, report.Failed)
			if tt.requireDef {
				assert.Equal(t, msgMissingDefinition, store.recorded[1])
				assert.Empty(t, store.marked)
			} else {
				assert.Equal(t, []int64{1}, store.marked)
			}
		})
	}
}

func TestRun_API_PingFailureTouchesNothing(t *testing.T) {
	t.Parallel()

	store := newMemStore(entry(1, "one", strPtr("1")))
	anki := newFakeAnki()
	anki.pingErr = errBoom
	agent := newTestAgent(store, anki, config.SyncModeAPI, true)

	report, err := agent.Run(context.Background(), RunOptions{})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, report.Fetched)
	assert.Empty(t, store.marked)
	assert.Empty(t, store.recorded)
}

func TestRun_API_OldVersionRejected(t *testing.T) {
	t.Parallel()

	anki := newFakeAnki()
	anki.version = 5
	agent := newTestAgent(newMemStore(), anki, config.SyncModeAPI, true)

	_, err := agent.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "older than 6")
}

func TestRun_API_DryRunIsPure(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		entry(1, "one", strPtr("1")),
		entry(2, "two", nil),
		entry(3, "three", strPtr("3")),
	)
	anki := newFakeAnki()
	anki.notes[noteKey("three", "WordDefinition")] = 5
	agent := newTestAgent(store, anki, config.SyncModeAPI, true)

	report, err := agent.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, OutcomePlanned, report.Items[0].Outcome)
	assert.Empty(t, store.marked)
	assert.Empty(t, store.recorded)
	assert.Empty(t, anki.added)
}

func TestRun_API_MarkFailureCountsAsFailed(t *testing.T) {
	t.Parallel()

	store := newMemStore(entry(1, "one", strPtr("1")))
	store.markErr[1] = errBoom
	anki := newFakeAnki()
	agent := newTestAgent(store, anki, config.SyncModeAPI, true)

	report, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Delivered)
	assert.Contains(t, report.Items[0].Error, "mark delivered")

	// Next run finds the note and only marks it.
	delete(store.markErr, 1)
	retry, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Skipped)
	assert.Len(t, anki.added, 1)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	store := newMemStore(entry(1, "one", strPtr("1")))
	agent := newTestAgent(store, newFakeAnki(), config.SyncModeFile, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Run(ctx, RunOptions{OutputPath: filepath.Join(t.TempDir(), "out.txt")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.marked)
}

func TestRun_Limit(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		entry(1, "one", strPtr("1")),
		entry(2, "two", strPtr("2")),
		entry(3, "three", strPtr("3")),
	)
	agent := newTestAgent(store, newFakeAnki(), config.SyncModeAPI, true)

	report, err := agent.Run(context.Background(), RunOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, []int64{1, 2}, store.marked)
}

func TestRun_UnknownMode(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(newMemStore(), nil, "carrier-pigeon", true)
	_, err := agent.Run(context.Background(), RunOptions{})
	require.Error(t, err)
}

func TestRun_StoreError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.listErr = errBoom
	agent := newTestAgent(store, nil, config.SyncModeFile, true)

	_, err := agent.Run(context.Background(), RunOptions{})
	require.ErrorIs(t, err, errBoom)
}

func TestRun_File_WritesAndMarks(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		entry(1, "bonjour", strPtr("hello")),
		entry(2, "merci", nil),
		entry(3, "au revoir", strPtr("goodbye")),
	)
	agent := newTestAgent(store, nil, config.SyncModeFile, true)
	path := filepath.Join(t.TempDir(), "batch.txt")

	report, err := agent.Run(context.Background(), RunOptions{OutputPath: path})
	require.NoError(t, err)

	assert.Equal(t, path, report.OutputPath)
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.ElementsMatch(t, []int64{1, 3}, store.marked)
	assert.Equal(t, msgMissingDefinition, store.recorded[2])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bonjour\thello")
	assert.Contains(t, string(data), "au revoir\tgoodbye")
	assert.NotContains(t, string(data), "merci")

	// Nothing left to deliver.
	again, err := agent.Run(context.Background(), RunOptions{OutputPath: filepath.Join(t.TempDir(), "again.txt")})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Fetched)
	assert.Empty(t, again.OutputPath)
}

func TestRun_File_DuplicateRecordSkippedButMarked(t *testing.T) {
	t.Parallel()

	first := entry(1, "bonjour", strPtr("hello"))
	second := entry(2, " bonjour ", strPtr("hello"))
	store := newMemStore(first, second)
	agent := newTestAgent(store, nil, config.SyncModeFile, true)

	report, err := agent.Run(context.Background(), RunOptions{OutputPath: filepath.Join(t.TempDir(), "dup.txt")})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Skipped)
	assert.ElementsMatch(t, []int64{1, 2}, store.marked)
}

func TestRun_File_WriteFailureMarksNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := newMemStore(entry(1, "bonjour", strPtr("hello")))
	agent := newTestAgent(store, nil, config.SyncModeFile, true)

	// The parent "directory" is a regular file, so the write must fail.
	_, err := agent.Run(context.Background(), RunOptions{OutputPath: filepath.Join(blocker, "out.txt")})
	require.Error(t, err)
	assert.Empty(t, store.marked)
	assert.Empty(t, store.recorded)
}

func TestRun_File_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	store := newMemStore(entry(1, "bonjour", strPtr("hello")), entry(2, "merci", nil))
	agent := newTestAgent(store, nil, config.SyncModeFile, true)
	path := filepath.Join(t.TempDir(), "dry.txt")

	report, err := agent.Run(context.Background(), RunOptions{OutputPath: path, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, report.OutputPath)
	assert.Empty(t, store.marked)
	assert.Empty(t, store.recorded)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_File_DefaultPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newMemStore(entry(1, "bonjour", strPtr("hello")))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	agent := NewAgent(log, store, nil, config.SyncConfig{
		Mode:      config.SyncModeFile,
		OutputDir: dir,
	})

	report, err := agent.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(report.OutputPath))
	assert.True(t, strings.HasPrefix(filepath.Base(report.OutputPath), "anki-"))
	assert.FileExists(t, report.OutputPath)
}

func TestRun_ModeOverride(t *testing.T) {
	t.Parallel()

	store := newMemStore(entry(1, "bonjour", strPtr("hello")))
	anki := newFakeAnki()
	agent := newTestAgent(store, anki, config.SyncModeFile, true)

	report, err := agent.Run(context.Background(), RunOptions{Mode: config.SyncModeAPI})
	require.NoError(t, err)
	assert.Equal(t, config.SyncModeAPI, report.Mode)
	assert.Equal(t, []string{"bonjour"}, anki.added)
}
