package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/team"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all teams",
	Long: `List every team defined in the teams directory.

Examples:
  # Human-readable listing
  teamctl list

  # Only teams whose name matches a glob
  teamctl list --filter 'front*'

  # JSON for scripts
  teamctl list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listJSON   bool
	listFilter string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format for programmatic consumption")
	listCmd.Flags().StringVar(&listFilter, "filter", "", "Only list teams whose name matches this glob")
}

// teamSummary is the JSON shape of one listed team.
type teamSummary struct {
	Name             string       `json:"name"`
	Enabled          bool         `json:"enabled"`
	Description      string       `json:"description"`
	LeadAgentID      *string      `json:"lead_agent_id"`
	LeadAgentName    *string      `json:"lead_agent_name"`
	WorkingDirectory *string      `json:"working_directory"`
	MemberIDs        []string     `json:"member_ids"`
	Members          team.Members `json:"members"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	teams, err := a.teams.List()
	if err != nil {
		return err
	}
	teams, err = filterTeams(teams, listFilter)
	if err != nil {
		return err
	}

	if listJSON {
		return writeTeamsJSON(a.out, teams, a.agents.DisplayName)
	}

	fmt.Fprintln(a.out, a.style.Header("📋 Teams:"))
	fmt.Fprintln(a.out)

	if len(teams) == 0 {
		if listFilter != "" {
			fmt.Fprintf(a.out, "  No teams match '%s'\n", listFilter)
			return nil
		}
		fmt.Fprintf(a.out, "  No teams configured in %s/\n", a.layout.TeamsDir)
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "  Create a team by adding a TEAM_NAME.md file to teams/")
		fmt.Fprintln(a.out, "  or run: teamctl create <name> --lead <EMP_ID>")
		return nil
	}

	for _, t := range teams {
		heading := "📦 " + t.Name
		if !t.Enabled {
			heading = "⛔ Disabled " + heading
		}
		fmt.Fprintln(a.out, a.style.Header(heading))

		description := t.Description
		if description == "" {
			description = "No description"
		}
		fmt.Fprintf(a.out, "   Description: %s\n", description)

		if t.LeadAgent != "" {
			fmt.Fprintf(a.out, "   Lead Agent: %s (%s)\n", t.LeadAgent, a.agents.DisplayName(t.LeadAgent))
		} else {
			fmt.Fprintln(a.out, "   Lead Agent: N/A")
		}
		if t.WorkingDirectory != "" {
			fmt.Fprintf(a.out, "   Working Dir: %s\n", t.WorkingDirectory)
		}
		if len(t.Members) > 0 {
			parts := make([]string, len(t.Members))
			for i, m := range t.Members {
				parts[i] = fmt.Sprintf("%s(%s)", m.EmployeeID, m.Role)
			}
			fmt.Fprintf(a.out, "   Members: %s\n", strings.Join(parts, ", "))
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// filterTeams keeps teams whose name matches pattern. An empty pattern
// keeps everything.
func filterTeams(teams []*team.Config, pattern string) ([]*team.Config, error) {
	if pattern == "" {
		return teams, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewPreconditionError(fmt.Sprintf("Invalid filter '%s'", pattern), errors.ErrInvalidInput).
			WithHint(err.Error())
	}
	var out []*team.Config
	for _, t := range teams {
		if g.Match(t.Name) {
			out = append(out, t)
		}
	}
	return out, nil
}

func writeTeamsJSON(w io.Writer, teams []*team.Config, displayName func(string) string) error {
	summaries := make([]teamSummary, 0, len(teams))
	for _, t := range teams {
		s := teamSummary{
			Name:        t.Name,
			Enabled:     t.Enabled,
			Description: t.Description,
			MemberIDs:   t.Members.IDs(),
			Members:     t.Members,
		}
		if s.Members == nil {
			s.Members = team.Members{}
		}
		if t.LeadAgent != "" {
			lead, name := t.LeadAgent, displayName(t.LeadAgent)
			s.LeadAgentID, s.LeadAgentName = &lead, &name
		}
		if t.WorkingDirectory != "" {
			wd := t.WorkingDirectory
			s.WorkingDirectory = &wd
		}
		summaries = append(summaries, s)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
