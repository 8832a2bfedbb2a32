package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Print queue delivery counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.store.Queue.Stats(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "read queue stats", err)
			}

			if rootOpts.Format == "json" {
				return json.NewEncoder(rootOpts.Stdout).Encode(map[string]int{
					"total":     stats.Total,
					"delivered": stats.Delivered,
					"pending":   stats.Pending,
					"failed":    stats.Failed,
				})
			}
			_, err = fmt.Fprintf(rootOpts.Stdout, "total=%d delivered=%d pending=%d failed=%d\n",
				stats.Total, stats.Delivered, stats.Pending, stats.Failed)
			return err
		},
	}
}
