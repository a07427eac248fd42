// Package delegate starts agents and hands them messages through whatever
// task-delegation mechanism is available: the external agent-manager CLI,
// or tmux driven directly.
//
// When no mechanism is available New returns ErrDelegationUnavailable and
// callers fall back to delivering into an already running session.
package delegate

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/teamctl/internal/config"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
)

// Delegator starts an agent and assigns it a message. Both calls take the
// agent's employee ID; the mechanism resolves it.
type Delegator interface {
	// Name identifies the mechanism in logs.
	Name() string
	// Start launches the agent. workingDir overrides the agent's own
	// working directory when non-empty.
	Start(ctx context.Context, employeeID, workingDir string) error
	// Assign delivers message to the agent as one input.
	Assign(ctx context.Context, employeeID, message string) error
}

// SkillName is the directory agent-manager is installed under.
const SkillName = "agent-manager"

// ScriptRelPath is the agent-manager entry point relative to its skill
// directory.
const ScriptRelPath = "scripts/main.py"

// Interpreter runs the located script.
const Interpreter = "python3"

// DefaultHint is the start command suggested when no local install exists.
const DefaultHint = "python3 ~/.claude/skills/agent-manager/scripts/main.py"

// Locate returns the agent-manager script path. The first skill directory
// containing an agent-manager skill wins; it must ship the script or the
// lookup fails.
func Locate(fs afero.Fs, skillDirs []string) (string, bool) {
	for _, dir := range skillDirs {
		skillDir := filepath.Join(dir, SkillName)
		if ok, _ := afero.DirExists(fs, skillDir); !ok {
			continue
		}
		script := filepath.Join(skillDir, filepath.FromSlash(ScriptRelPath))
		if ok, _ := afero.Exists(fs, script); ok {
			return script, true
		}
		return "", false
	}
	return "", false
}

// StartHint returns the command a user should run to start an agent by
// hand, preferring a repo-local install.
func StartHint(fs afero.Fs, repoRoot string) string {
	for _, base := range []string{".claude", ".agent"} {
		script := filepath.Join(repoRoot, base, "skills", SkillName, filepath.FromSlash(ScriptRelPath))
		if ok, _ := afero.Exists(fs, script); ok {
			return Interpreter + " " + script
		}
	}
	return DefaultHint
}

// Options selects and configures a Delegator.
type Options struct {
	// Mode is one of the config.Mode* values; empty means auto.
	Mode string
	// Command is an explicit agent-manager command line.
	Command   string
	SkillDirs []string
	Fs        afero.Fs
	// CLIOptions configure the CLI delegator when one is chosen.
	CLIOptions []CLIOption
	// Native is used in tmux mode.
	Native *Native
	Logger *logging.Logger
}

// New picks the delegation mechanism for opts.Mode.
//
//   - auto: the configured command, else a located agent-manager script,
//     else ErrDelegationUnavailable.
//   - cli: like auto, but a missing agent-manager is a precondition failure.
//   - tmux: the native tmux delegator.
//   - off: always ErrDelegationUnavailable.
func New(opts Options) (Delegator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	switch opts.Mode {
	case config.ModeOff:
		return nil, errors.ErrDelegationUnavailable

	case config.ModeTmux:
		if opts.Native == nil {
			return nil, errors.ErrDelegationUnavailable
		}
		return opts.Native, nil

	case "", config.ModeAuto, config.ModeCLI:
		if argv := strings.Fields(opts.Command); len(argv) > 0 {
			logger.Debug("using configured agent-manager", "command", opts.Command)
			return NewCLI(argv, append(opts.CLIOptions, WithCLILogger(logger))...), nil
		}
		if script, ok := Locate(fs, opts.SkillDirs); ok {
			logger.Debug("located agent-manager", "script", script)
			return NewCLI([]string{Interpreter, script}, append(opts.CLIOptions, WithCLILogger(logger))...), nil
		}
		if opts.Mode == config.ModeCLI {
			return nil, errors.NewPreconditionError("agent-manager not found", errors.ErrDelegationUnavailable).
				WithHint("Install the agent-manager skill or set agent_manager.command")
		}
		logger.Debug("agent-manager not found", "skill_dirs", opts.SkillDirs)
		return nil, errors.ErrDelegationUnavailable

	default:
		return nil, errors.NewPreconditionError("unknown agent_manager.mode: "+opts.Mode, errors.ErrInvalidInput).
			WithHint("Valid modes: " + strings.Join(config.ValidModes(), ", "))
	}
}
