package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/team"
)

var createCmd = &cobra.Command{
	Use:   "create <name> --lead <EMP_ID> [--members <EMP_ID>...]",
	Short: "Create a new team",
	Long: `Create a team file in the teams directory with front matter, a
mermaid workflow, the member list and usage notes.

Members may be given as repeated or comma-separated --members values, or as
extra arguments after the team name.

Examples:
  teamctl create backend --lead EMP_0001 --members EMP_0001,EMP_0002
  teamctl create backend --lead EMP_0001 --members EMP_0001 EMP_0002`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

var (
	createLead        string
	createMembers     []string
	createDescription string
	createForce       bool
)

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createLead, "lead", "", "Lead agent employee ID (e.g., EMP_0001)")
	createCmd.Flags().StringSliceVar(&createMembers, "members", nil, "Team member employee IDs")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", team.DefaultDescription, "Team description")
	createCmd.Flags().BoolVar(&createForce, "force", false, "Overwrite existing team file")
	_ = createCmd.MarkFlagRequired("lead")
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	members := append(append([]string{}, createMembers...), args[1:]...)

	result, err := a.teams.WriteTemplate(team.TemplateParams{
		Name:        name,
		Description: createDescription,
		Lead:        createLead,
		Members:     members,
		AgentName:   a.agents.DisplayName,
	}, createForce)
	if result.CreatedDir {
		fmt.Fprintf(a.out, "✅ Created teams directory: %s\n", a.layout.TeamsDir)
	}
	if err != nil {
		return err
	}
	a.logger.Info("team created", "team", name, "file", result.Path, "members", len(members))

	fmt.Fprintf(a.out, "✅ Team created: %s\n", name)
	fmt.Fprintf(a.out, "   Configuration: %s\n", result.Path)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Next steps:")
	fmt.Fprintf(a.out, "  1. Review and edit the workflow in %s\n", result.Path)
	fmt.Fprintf(a.out, "  2. Ensure agents are configured in %s/\n", a.layout.AgentsDir)
	fmt.Fprintf(a.out, "  3. Assign a task: teamctl assign %s\n", name)
	return nil
}
