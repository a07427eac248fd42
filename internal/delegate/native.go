package delegate

import (
	"context"
	"fmt"
	"time"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/detect"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
	"github.com/Iron-Ham/teamctl/internal/session"
	"github.com/Iron-Ham/teamctl/internal/tmux"
)

// Geometry is the size of sessions Native creates.
type Geometry struct {
	Width        int
	Height       int
	HistoryLimit int
}

// DefaultReadyTimeout bounds how long Start waits for a new session's
// launcher to reach its input prompt.
const DefaultReadyTimeout = 60 * time.Second

// Poll interval while waiting for readiness. It starts small and backs off.
const (
	readyPollInitial = 100 * time.Millisecond
	readyPollMax     = 2 * time.Second
)

// Native drives tmux directly: Start creates a detached session running the
// agent's launcher and waits for its input prompt, and Assign pastes into it.
type Native struct {
	agents   *agent.Directory
	sessions *session.TmuxManager
	geometry Geometry
	env      map[string]string
	logger   *logging.Logger

	readyTimeout time.Duration
	readyPoll    time.Duration
}

// NativeOption configures a Native delegator.
type NativeOption func(*Native)

// WithReadyTimeout bounds the wait for a new session's input prompt. Zero
// skips the wait.
func WithReadyTimeout(d time.Duration) NativeOption {
	return func(n *Native) { n.readyTimeout = d }
}

// NewNative returns a Native delegator. env is exported into every session
// it creates.
func NewNative(agents *agent.Directory, sessions *session.TmuxManager, geometry Geometry, env map[string]string, logger *logging.Logger, opts ...NativeOption) *Native {
	if logger == nil {
		logger = logging.NopLogger()
	}
	n := &Native{
		agents:       agents,
		sessions:     sessions,
		geometry:     geometry,
		env:          env,
		logger:       logger,
		readyTimeout: DefaultReadyTimeout,
		readyPoll:    readyPollInitial,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name implements Delegator.
func (n *Native) Name() string { return "tmux" }

// Start creates the agent's session in workingDir, or in the agent's own
// working directory when workingDir is empty.
func (n *Native) Start(ctx context.Context, employeeID, workingDir string) error {
	cfg, err := n.agents.Resolve(employeeID)
	if err != nil {
		return err
	}
	name := n.sessions.SessionName(cfg)
	if name == "" {
		return errors.NewAgentError("no session ID can be derived", errors.ErrStartFailed).
			WithEmployeeID(employeeID)
	}

	dir := workingDir
	if dir == "" {
		dir = cfg.WorkingDirectory
	}
	spec := tmux.SessionSpec{
		Name:         name,
		Dir:          dir,
		Width:        n.geometry.Width,
		Height:       n.geometry.Height,
		HistoryLimit: n.geometry.HistoryLimit,
		Env:          n.env,
		Command:      cfg.Launcher,
	}
	if err := n.sessions.Client().NewSession(ctx, spec); err != nil {
		res := ExecResult{}
		var cmdErr *tmux.CommandError
		if errors.As(err, &cmdErr) {
			res.Stderr = cmdErr.Stderr
		}
		return collaboratorError("start", "Failed to start lead agent", errors.ErrStartFailed, res, err)
	}

	n.logger.Info("session started",
		"employee_id", employeeID,
		"session", name,
		"working_dir", dir,
		"launcher", cfg.Launcher,
	)
	return n.waitForReady(ctx, cfg, name)
}

// waitForReady polls the new session until its launcher shows an idle
// input prompt, so a message sent next is not typed into a half-started
// program. A launcher error or an exited session ends the wait early.
func (n *Native) waitForReady(ctx context.Context, cfg *agent.Config, name string) error {
	if n.readyTimeout <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, n.readyTimeout)
	defer cancel()

	poll := n.readyPoll
	last := detect.Unknown
	timer := time.NewTimer(poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.NewCollaboratorError("start", errors.ErrStartFailed).
				WithMessage(fmt.Sprintf("Lead agent did not become ready within %s (last state: %s)", n.readyTimeout, last.State)).
				WithHint("Session: " + name).
				WithHint("Inspect with: tmux attach -t " + name)
		case <-timer.C:
		}

		if !n.sessions.Alive(ctx, cfg) {
			if ctx.Err() != nil {
				continue
			}
			return errors.NewCollaboratorError("start", errors.Join(errors.ErrStartFailed, errors.ErrSessionNotRunning)).
				WithMessage(fmt.Sprintf("Lead agent session %s exited during startup", name))
		}
		rs, err := n.sessions.RuntimeState(ctx, cfg)
		if err == nil {
			last = rs
			switch rs.State {
			case detect.StateIdle:
				n.logger.Debug("session ready", "employee_id", cfg.EmployeeID, "session", name)
				return nil
			case detect.StateError:
				return errors.NewCollaboratorError("start", errors.ErrStartFailed).
					WithMessage("Lead agent failed during startup").
					WithStderr(rs.Reason).
					WithHint("Inspect with: tmux attach -t " + name)
			}
		}

		if poll < readyPollMax {
			poll = min(poll*2, readyPollMax)
		}
		timer.Reset(poll)
	}
}

// Assign delivers message into the agent's running session.
func (n *Native) Assign(ctx context.Context, employeeID, message string) error {
	cfg, err := n.agents.Resolve(employeeID)
	if err != nil {
		return err
	}
	return n.sessions.Deliver(ctx, cfg, message)
}
