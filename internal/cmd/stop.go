package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

var stopCmd = &cobra.Command{
	Use:   "stop <team>",
	Short: "Stop a team's agent sessions",
	Long: `Stop the tmux session of every team member (or only the lead with
--lead-only). Each agent is sent Ctrl+C and given a moment to exit before
its session and any leftover processes are killed.`,
	Args: cobra.ExactArgs(1),
	RunE: runStop,
}

var stopLeadOnly bool

func init() {
	rootCmd.AddCommand(stopCmd)

	stopCmd.Flags().BoolVar(&stopLeadOnly, "lead-only", false, "Only stop the lead agent")
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.teams.Resolve(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var failures []error
	for _, m := range t.Members {
		if stopLeadOnly && !t.IsLead(m.EmployeeID) {
			continue
		}
		name := a.agents.DisplayName(m.EmployeeID)
		ac, err := a.agents.Resolve(m.EmployeeID)
		if err != nil {
			fmt.Fprintf(a.out, "❔ %s (%s) not found\n", m.EmployeeID, name)
			continue
		}
		if !a.sessions.Alive(ctx, ac) {
			fmt.Fprintf(a.out, "⭕ %s (%s) not running\n", m.EmployeeID, name)
			continue
		}
		if err := a.sessions.Stop(ctx, ac); err != nil {
			fmt.Fprintf(a.out, "❌ %s (%s): %v\n", m.EmployeeID, name, err)
			failures = append(failures, err)
			continue
		}
		fmt.Fprintf(a.out, "⏹  Stopped %s (%s)\n", m.EmployeeID, name)
	}

	if len(failures) > 0 {
		return errors.NewCollaboratorError("stop", errors.Join(failures...)).
			WithMessage(fmt.Sprintf("Failed to stop %d session(s) of team '%s'", len(failures), t.Name))
	}
	return nil
}
