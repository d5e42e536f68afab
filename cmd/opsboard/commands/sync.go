package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull reservations and cleaning jobs from the upstream platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}
			err = container.Hooks().SyncData.Mutate(cmd.Context(), struct{}{})
			return printAction(cmd.OutOrStdout(), err, "Sync complete")
		},
	}
}
