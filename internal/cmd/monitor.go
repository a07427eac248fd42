package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <team>",
	Short: "Monitor team output",
	Long: `Print the recent terminal output of every team member.

With --follow, members are polled until interrupted and a member's output is
printed again only when it changes. Editing the team file while following
reloads the roster.`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

var (
	monitorFollow   bool
	monitorLines    int
	monitorInterval time.Duration
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVarP(&monitorFollow, "follow", "f", false, "Follow output (like tail -f)")
	monitorCmd.Flags().IntVarP(&monitorLines, "lines", "n", 0, "Number of lines per agent (default: monitor.lines, 50)")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Delay between polls in follow mode (default: monitor.interval_ms, 3s)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.teams.Resolve(args[0])
	if err != nil {
		return err
	}

	lines := monitorLines
	if lines <= 0 {
		lines = a.cfg.Monitor.Lines
	}
	interval := monitorInterval
	if interval <= 0 {
		interval = a.cfg.Monitor.Interval()
	}

	m := monitor.New(a.agents, a.sessions, a.out,
		monitor.WithLines(lines),
		monitor.WithInterval(interval),
		monitor.WithReload(a.teams),
		monitor.WithHeaderStyle(a.style.Member),
		monitor.WithLogger(a.logger),
	)

	if !monitorFollow {
		return m.Snapshot(cmd.Context(), t)
	}
	if err := m.Follow(cmd.Context(), t); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n\n%s\n", monitor.StoppedMessage)
	return nil
}
