package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/team"
)

var showCmd = &cobra.Command{
	Use:   "show <team>",
	Short: "Show team details",
	Long: `Show a team's configuration, roster and documentation (including its
workflow). Configuration problems are reported as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.teams.Resolve(args[0])
	if err != nil {
		return err
	}

	if problems := team.Validate(t); len(problems) > 0 {
		a.warnf("Team configuration has errors:")
		for _, p := range problems {
			fmt.Fprintf(a.out, "   - %s\n", p)
		}
		fmt.Fprintln(a.out)
	}

	fmt.Fprintln(a.out, a.style.Header("📦 Team: "+t.Name))
	fmt.Fprintln(a.out, a.style.Muted(strings.Repeat("=", 60)))

	description := t.Description
	if description == "" {
		description = "No description"
	}
	fmt.Fprintf(a.out, "Description: %s\n", description)

	leadName := "N/A"
	if t.LeadAgent != "" {
		leadName = a.agents.DisplayName(t.LeadAgent)
	}
	fmt.Fprintf(a.out, "Lead Agent: %s (%s)\n", t.LeadAgent, leadName)
	fmt.Fprintln(a.out)

	if len(t.Members) > 0 {
		fmt.Fprintln(a.out, "Members:")
		for _, m := range t.Members {
			mark := ""
			if t.IsLead(m.EmployeeID) {
				mark = " 👑"
			}
			fmt.Fprintf(a.out, "  - %s (%s) - %s%s\n", m.EmployeeID, a.agents.DisplayName(m.EmployeeID), m.Role, mark)
		}
	} else {
		fmt.Fprintln(a.out, "No members defined")
	}

	if t.Body != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Team Documentation:")
		fmt.Fprintln(a.out, a.style.Muted(strings.Repeat("-", 60)))
		fmt.Fprintln(a.out, t.Body)
	}
	return nil
}
