package cli

import (
	"context"
	"fmt"

	"github.com/heartmarshall/wordqueue/internal/adapter/ankiconnect"
	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/service/syncer"
)

// SyncOptions holds flags for a sync run.
type SyncOptions struct {
	*RootOptions
	Limit  int
	DryRun bool
	Output string
	Mode   string
}

func runSync(ctx context.Context, opts *SyncOptions) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be >= 0")
	}
	switch opts.Mode {
	case "", config.SyncModeFile, config.SyncModeAPI:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be %q or %q", opts.Mode, config.SyncModeFile, config.SyncModeAPI))
	}

	e, err := setup(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Sync.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Sync.RunTimeout)
		defer cancel()
	}

	agent := syncer.NewAgent(e.log, e.store.Queue, ankiconnect.NewClient(e.cfg.Sync, e.log), e.cfg.Sync)

	report, err := agent.Run(ctx, syncer.RunOptions{
		Limit:      opts.Limit,
		DryRun:     opts.DryRun,
		OutputPath: opts.Output,
		Mode:       opts.Mode,
	})
	if report != nil {
		if werr := writeReport(opts.Stdout, opts.Format, report); werr != nil {
			return WrapExitError(ExitCommandError, "write report", werr)
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "sync failed", err)
	}
	if report.HasFailures() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d entries failed", report.Failed, report.Fetched))
	}
	return nil
}
