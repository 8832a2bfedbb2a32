// Package cli implements the wordqueue-sync command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/wordqueue/internal/app"
	"github.com/heartmarshall/wordqueue/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	// Stdout receives the report; logs always go to Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Running it without a subcommand
// performs one sync batch.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Stdout: os.Stdout, Stderr: os.Stderr}
	runOpts := &SyncOptions{RootOptions: opts}

	cmd := &cobra.Command{
		Use:   "wordqueue-sync",
		Short: "Deliver queued words to Anki",
		Long: `Deliver every undelivered queue entry to Anki, either as an import
file ("file" mode) or through the AnkiConnect add-on ("api" mode).

Each delivered entry is marked so it is never delivered again. Failed
entries keep their error and are retried on the next run.

Example:
  wordqueue-sync --dry-run
  wordqueue-sync --mode file --output ./anki/today.txt
  wordqueue-sync status`,
		Version:       app.BuildVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), runOpts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default $CONFIG_PATH or ./config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.Flags().IntVar(&runOpts.Limit, "limit", 0, "deliver at most N entries (0 = all)")
	cmd.Flags().BoolVar(&runOpts.DryRun, "dry-run", false, "show what would be delivered without changing anything")
	cmd.Flags().StringVarP(&runOpts.Output, "output", "o", "", "artifact path in file mode (default <output_dir>/anki-<timestamp>.txt)")
	cmd.Flags().StringVar(&runOpts.Mode, "mode", "", "delivery mode (file|api), overrides sync.mode")

	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env is what every command needs after startup.
type env struct {
	cfg   *config.Config
	log   *slog.Logger
	store *app.Store
}

func (e *env) Close() { e.store.Close() }

func setup(ctx context.Context, opts *RootOptions) (*env, error) {
	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	logCfg := cfg.Log
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logger := app.NewLoggerTo(opts.Stderr, logCfg)

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open queue store", err)
	}

	return &env{cfg: cfg, log: logger, store: store}, nil
}
