package commands

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-opsboard/hooks"
	"github.com/goliatone/go-opsboard/model"
)

func (c *CLI) newCleaningCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleaning",
		Short: "List cleaning jobs and change their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}
			h := container.Hooks()
			ctx := cmd.Context()

			date, _ := cmd.Flags().GetString("date")
			property, _ := cmd.Flags().GetString("property")

			switch {
			case date != "":
				return printResult(cmd.OutOrStdout(), h.CleaningJobsByDate(date).Use(ctx))
			case property != "":
				return printResult(cmd.OutOrStdout(), h.CleaningJobsByProperty(property).Use(ctx))
			default:
				return printResult(cmd.OutOrStdout(), h.CleaningJobs().Use(ctx))
			}
		},
	}
	cmd.Flags().String("date", "", "Only jobs scheduled on this date, YYYY-MM-DD")
	cmd.Flags().String("property", "", "Only jobs for this property ID")

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a cleaning job to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}
			vars := hooks.CleaningStatusVars{JobID: args[0], Status: model.CleaningStatus(args[1])}
			err = container.Hooks().UpdateCleaningStatus.Mutate(cmd.Context(), vars)
			return printAction(cmd.OutOrStdout(), err, "Cleaning status updated")
		},
	})
	return cmd
}
