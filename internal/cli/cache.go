package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drutigliano19/spark-history-mcp/internal/fetch"
)

func newCacheCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache of finished applications",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := o.cfg.Cache.Path()
			if err != nil {
				return err
			}
			n, err := fetch.ClearDisk(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached response(s) from %s\n", n, dir)
			return nil
		},
	})
	return cmd
}
