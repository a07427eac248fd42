package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/dashboard"
	"github.com/Iron-Ham/teamctl/internal/status"
	"github.com/Iron-Ham/teamctl/internal/team"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <team>",
	Short: "Live status view of a team",
	Long: `Open a full-screen view of the team's status that refreshes on an
interval. The team file is re-read on every refresh, so roster edits show
up without restarting. Press r to refresh now and q to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runDashboard,
}

var dashboardInterval time.Duration

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().DurationVar(&dashboardInterval, "interval", 0, "Refresh interval (default: monitor.interval_ms)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.teams.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := team.RequireEnabled(t); err != nil {
		return withIcon(err, "⛔")
	}

	interval := dashboardInterval
	if interval <= 0 {
		interval = a.cfg.Monitor.Interval()
	}

	agg := status.NewAggregator(a.agents, a.sessions, a.logger)
	identifier := t.Stem
	refresh := func(ctx context.Context) (*status.Report, error) {
		current, err := a.teams.Resolve(identifier)
		if err != nil {
			return nil, err
		}
		return agg.Collect(ctx, current)
	}

	ctx := cmd.Context()
	return dashboard.Run(ctx, dashboard.New(ctx, t.Name, refresh, interval))
}
