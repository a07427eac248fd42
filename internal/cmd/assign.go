package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/assign"
	"github.com/Iron-Ham/teamctl/internal/briefing"
	"github.com/Iron-Ham/teamctl/internal/delegate"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/record"
	"github.com/Iron-Ham/teamctl/internal/session"
	"github.com/Iron-Ham/teamctl/internal/skill"
	"github.com/Iron-Ham/teamctl/internal/team"
)

var assignCmd = &cobra.Command{
	Use:   "assign <team>",
	Short: "Assign a task to a team",
	Long: `Assign a task to a team's lead agent for coordination.

The task is read from --task-file or stdin. The lead receives a briefing
with the team's configuration, workflow and skills followed by the task.
A stopped lead is started first; a running lead's session is reused unless
--no-restore is given.

Examples:
  teamctl assign frontend <<EOF
  Implement the feature
  EOF

  teamctl assign backend -f task.md --no-restore`,
	Args: cobra.ExactArgs(1),
	RunE: runAssign,
}

var (
	assignTaskFile  string
	assignRestore   bool
	assignNoRestore bool
)

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().StringVarP(&assignTaskFile, "task-file", "f", "", "Read task from file")
	assignCmd.Flags().BoolVarP(&assignRestore, "restore", "r", true, "Reuse the existing tmux session if the lead agent is already running")
	assignCmd.Flags().BoolVar(&assignNoRestore, "no-restore", false, "Require the lead agent to be stopped first")
	assignCmd.MarkFlagsMutuallyExclusive("restore", "no-restore")
}

func runAssign(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Fail on an unknown or disabled team before waiting on stdin.
	t, err := a.teams.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := team.RequireEnabled(t); err != nil {
		return withIcon(err, "⚠️ ")
	}

	task, err := readTask(cmd.InOrStdin(), assignTaskFile)
	if err != nil {
		return err
	}

	opts := []assign.Option{
		assign.WithStartHint(delegate.StartHint(a.fs, a.layout.Root)),
		assign.WithLogger(a.logger),
		assign.WithEvents(func(e assign.Event) { printAssignEvent(a, e) }),
	}
	if a.cfg.Assign.Lock {
		opts = append(opts, assign.WithLocker(session.FileLocker{Dir: a.layout.LocksDir(), Logger: a.logger}))
	}
	d, err := a.delegator()
	switch {
	case err == nil:
		opts = append(opts, assign.WithDelegator(d))
	case errors.Is(err, errors.ErrDelegationUnavailable) && !errors.IsUserFacing(err):
		// Degraded path: deliver into an already running lead.
	default:
		return err
	}

	composer := briefing.NewComposer(a.agents.DisplayName, skill.NewStore(a.fs, a.layout.SkillDirs()))
	records := record.NewStore(a.layout.AssignmentsDir(), record.WithFs(a.fs))
	orch := assign.New(a.teams, a.agents, a.sessions, records, composer, opts...)

	res, err := orch.Assign(cmd.Context(), assign.Request{
		Team:    t.Name,
		Task:    task,
		Restore: assignRestore && !assignNoRestore,
	})
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrSessionNotRunning), errors.Is(err, errors.ErrTeamDisabled):
			return withIcon(err, "⚠️ ")
		default:
			return err
		}
	}

	fmt.Fprintf(a.out, "✅ Task assigned to %s team\n", res.Team)
	fmt.Fprintf(a.out, "   Lead Agent: %s (%s)\n", res.LeadID, res.LeadName)
	if res.Degraded {
		fmt.Fprintf(a.out, "   Monitor: tmux attach -t %s\n", res.Session)
		return nil
	}
	if res.WorkingDir != "" {
		fmt.Fprintf(a.out, "   Working Dir: %s\n", res.WorkingDir)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Monitor team progress:")
	fmt.Fprintf(a.out, "  teamctl monitor %s\n", res.Team)
	return nil
}

// readTask returns the task from path, or from stdin when path is empty.
func readTask(stdin io.Reader, path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read task from stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewPreconditionError("Task file not found: "+path, errors.ErrInvalidInput)
		}
		return "", errors.Wrapf(err, "failed to read task file %s", path)
	}
	return string(data), nil
}

func printAssignEvent(a *app, e assign.Event) {
	switch e.Kind {
	case assign.EventMissingSkills:
		a.warnf("Missing team skills: %s", strings.Join(e.Skills, ", "))
	case assign.EventRecordFailed:
		a.warnf("Could not record task: %v", e.Err)
	case assign.EventDegraded:
		a.warnf("agent-manager not found, attempting direct assignment...")
	case assign.EventReusing:
		fmt.Fprintf(a.out, "✅ Using existing session for lead agent '%s' (%s)\n\n", e.LeadID, e.LeadName)
	case assign.EventStarting:
		fmt.Fprintf(a.out, "⏳ Starting lead agent %s...\n", e.LeadID)
	case assign.EventStarted:
		fmt.Fprintf(a.out, "✅ Lead agent started\n\n")
	}
}
