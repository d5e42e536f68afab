package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dashboardReads = []string{
	"stats",
	"upcoming-checkins",
	"today-cleaning",
	"recent-activity",
	"occupancy-trends",
	"revenue-trends",
	"booking-sources",
	"property-performance",
	"task-priority",
}

func (c *CLI) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "dashboard [read]",
		Short:     "Print a dashboard read (default stats)",
		Long:      "Reads: " + strings.Join(dashboardReads, ", "),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: dashboardReads,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}
			h := container.Hooks()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			name := "stats"
			if len(args) == 1 {
				name = args[0]
			}

			switch name {
			case "stats":
				return printResult(out, h.DashboardStats().Use(ctx))
			case "upcoming-checkins":
				return printResult(out, h.UpcomingCheckIns().Use(ctx))
			case "today-cleaning":
				return printResult(out, h.TodayCleaning().Use(ctx))
			case "recent-activity":
				return printResult(out, h.RecentActivity().Use(ctx))
			case "occupancy-trends":
				return printResult(out, h.OccupancyTrends().Use(ctx))
			case "revenue-trends":
				return printResult(out, h.RevenueTrends().Use(ctx))
			case "booking-sources":
				return printResult(out, h.BookingSources().Use(ctx))
			case "property-performance":
				return printResult(out, h.PropertyPerformance().Use(ctx))
			case "task-priority":
				return printResult(out, h.TaskPriorityBreakdown().Use(ctx))
			default:
				return fmt.Errorf("unknown dashboard read %q (want one of %s)", name, strings.Join(dashboardReads, ", "))
			}
		},
	}
}
