package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/team"
)

var validateCmd = &cobra.Command{
	Use:   "validate [team...]",
	Short: "Check team configurations",
	Long: `Check one or more team configurations for missing fields, an empty
roster and a lead agent that is not a member. Without arguments every team
is checked. Exits non-zero when any team has problems.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var teams []*team.Config
	if len(args) == 0 {
		if teams, err = a.teams.List(); err != nil {
			return err
		}
	} else {
		for _, id := range args {
			t, err := a.teams.Resolve(id)
			if err != nil {
				return err
			}
			teams = append(teams, t)
		}
	}

	if len(teams) == 0 {
		fmt.Fprintf(a.out, "No teams configured in %s/\n", a.layout.TeamsDir)
		return nil
	}

	invalid := 0
	for _, t := range teams {
		problems := team.Validate(t)
		if len(problems) == 0 {
			fmt.Fprintf(a.out, "✅ %s\n", t.Name)
			continue
		}
		invalid++
		fmt.Fprintln(a.out, a.style.Warn(fmt.Sprintf("⚠️  %s (%s)", t.Name, t.File)))
		for _, p := range problems {
			fmt.Fprintf(a.out, "   - %s\n", p)
		}
	}

	if invalid > 0 {
		return errors.NewPreconditionError(
			fmt.Sprintf("%d of %d team(s) have configuration errors", invalid, len(teams)), errors.ErrTeamInvalid)
	}
	return nil
}
