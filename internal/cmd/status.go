package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status <team>",
	Short: "Show team member status",
	Long: `Show whether each team member's session is running and, for running
members, what the agent appears to be doing (idle, busy, stuck, blocked on a
prompt, or failing).`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var statusJSON bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.teams.Resolve(args[0])
	if err != nil {
		return err
	}

	report, err := status.NewAggregator(a.agents, a.sessions, a.logger).Collect(cmd.Context(), t)
	if err != nil {
		if errors.Is(err, errors.ErrTeamDisabled) {
			return withIcon(err, "⛔")
		}
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintln(a.out, a.style.Header("📊 Team Status: "+report.Team))
	fmt.Fprintln(a.out, a.style.Muted(strings.Repeat("=", 60)))
	for _, line := range report.Lines() {
		fmt.Fprintln(a.out, line)
	}
	return nil
}
