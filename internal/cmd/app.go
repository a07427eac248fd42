package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/config"
	"github.com/Iron-Ham/teamctl/internal/delegate"
	"github.com/Iron-Ham/teamctl/internal/detect"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
	"github.com/Iron-Ham/teamctl/internal/repo"
	"github.com/Iron-Ham/teamctl/internal/session"
	"github.com/Iron-Ham/teamctl/internal/team"
	"github.com/Iron-Ham/teamctl/internal/tmux"
)

// app holds the components one command invocation is built from. Nothing
// in it outlives the command.
type app struct {
	cfg      *config.Config
	layout   repo.Layout
	fs       afero.Fs
	logger   *logging.Logger
	teams    *team.Store
	agents   *agent.Directory
	sessions *session.TmuxManager
	out      io.Writer
	style    *styles
}

// newApp loads configuration, discovers the repository layout and wires
// the stores and session manager against it.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	layout, err := repo.NewDiscoverer().Discover(repo.Options{
		RepoRoot:  cfg.Paths.RepoRoot,
		TeamsDir:  cfg.Paths.TeamsDir,
		AgentsDir: cfg.Paths.AgentsDir,
		StateDir:  cfg.Paths.StateDir,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate repository root")
	}
	// Placeholders like ${REPO_ROOT} in team and agent files expand against
	// the discovered root, as do child processes.
	if os.Getenv("REPO_ROOT") == "" {
		_ = os.Setenv("REPO_ROOT", layout.Root)
	}

	logger := openLogger(cfg, layout)
	fs := afero.NewOsFs()
	out := cmd.OutOrStdout()

	a := &app{
		cfg:    cfg,
		layout: layout,
		fs:     fs,
		logger: logger,
		teams: team.NewStore(layout.TeamsDir,
			team.WithFs(fs),
			team.WithExpander(layout.Expand),
			team.WithLogger(logger),
		),
		agents: agent.NewDirectory(layout.AgentsDir,
			agent.WithFs(fs),
			agent.WithExpander(layout.Expand),
			agent.WithLogger(logger),
		),
		sessions: session.NewTmuxManager(
			tmux.New(cfg.Tmux.Socket),
			detect.NewDetector(cfg.Status.StuckAfter()),
			session.WithPrefix(cfg.Tmux.SessionPrefix),
			session.WithLogger(logger),
		),
		out:   out,
		style: newStyles(out),
	}

	logger.Debug("command started",
		"command", cmd.CommandPath(),
		"repo_root", layout.Root,
		"teams_dir", layout.TeamsDir,
		"agents_dir", layout.AgentsDir,
	)
	return a, nil
}

// Close releases the log file.
func (a *app) Close() {
	_ = a.logger.Close()
}

func openLogger(cfg *config.Config, layout repo.Layout) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	logger, err := logging.NewLoggerWithRotation(layout.LogDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   true,
	})
	if err != nil {
		// A read-only state dir must not break user-facing commands.
		return logging.NopLogger()
	}
	return logger
}

// delegator selects the task-delegation mechanism configured by
// agent_manager.mode.
func (a *app) delegator() (delegate.Delegator, error) {
	native := delegate.NewNative(a.agents, a.sessions, delegate.Geometry{
		Width:        a.cfg.Tmux.Width,
		Height:       a.cfg.Tmux.Height,
		HistoryLimit: a.cfg.Tmux.HistoryLimit,
	}, map[string]string{"REPO_ROOT": a.layout.Root}, a.logger,
		delegate.WithReadyTimeout(a.cfg.Tmux.ReadyTimeout()),
	)

	return delegate.New(delegate.Options{
		Mode:      a.cfg.AgentManager.Mode,
		Command:   expandCommand(a.cfg.AgentManager.Command),
		SkillDirs: a.layout.SkillDirs(),
		Fs:        a.fs,
		CLIOptions: []delegate.CLIOption{
			delegate.WithEnv(a.layout.Env(os.Environ())),
			delegate.WithTimeout(a.cfg.AgentManager.Timeout()),
		},
		Native: native,
		Logger: a.logger,
	})
}

// expandCommand expands ~ in every word of a command line.
func expandCommand(command string) string {
	fields := strings.Fields(command)
	for i, f := range fields {
		fields[i] = config.ExpandHome(f)
	}
	return strings.Join(fields, " ")
}
