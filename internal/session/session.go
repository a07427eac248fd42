// Package session answers questions about agent tmux sessions (is it alive,
// what is it doing, what did it print) and delivers messages to them. It
// also provides the advisory per-team assignment lock.
package session

import (
	"context"
	"time"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/detect"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
	"github.com/Iron-Ham/teamctl/internal/tmux"
)

// DefaultPrefix is prepended to an agent's session ID to form the tmux
// session name.
const DefaultPrefix = "agent-"

// Manager is the session surface the rest of teamctl depends on.
type Manager interface {
	SessionName(cfg *agent.Config) string
	Alive(ctx context.Context, cfg *agent.Config) bool
	RuntimeState(ctx context.Context, cfg *agent.Config) (detect.RuntimeState, error)
	Capture(ctx context.Context, cfg *agent.Config, lines int) (string, error)
	Deliver(ctx context.Context, cfg *agent.Config, message string) error
	Stop(ctx context.Context, cfg *agent.Config) error
}

// stateLines is how much scrollback RuntimeState inspects.
const stateLines = 40

// TmuxManager implements Manager on top of the tmux CLI.
type TmuxManager struct {
	client   *tmux.Client
	detector *detect.Detector
	prefix   string
	logger   *logging.Logger

	stopTimeout time.Duration
}

// Option configures a TmuxManager.
type Option func(*TmuxManager)

// WithPrefix overrides the session name prefix.
func WithPrefix(prefix string) Option {
	return func(m *TmuxManager) { m.prefix = prefix }
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *TmuxManager) { m.logger = l }
}

// WithStopTimeout sets how long Stop waits for a graceful exit.
func WithStopTimeout(d time.Duration) Option {
	return func(m *TmuxManager) { m.stopTimeout = d }
}

// NewTmuxManager returns a TmuxManager over client, classifying output
// with detector.
func NewTmuxManager(client *tmux.Client, detector *detect.Detector, opts ...Option) *TmuxManager {
	m := &TmuxManager{
		client:      client,
		detector:    detector,
		prefix:      DefaultPrefix,
		logger:      logging.NopLogger(),
		stopTimeout: tmux.DefaultGracefulStopTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Client returns the underlying tmux client.
func (m *TmuxManager) Client() *tmux.Client {
	return m.client
}

// SessionName returns the tmux session name for an agent, or "" when no
// session ID can be derived.
func (m *TmuxManager) SessionName(cfg *agent.Config) string {
	id := agent.SessionID(cfg)
	if id == "" {
		return ""
	}
	return m.prefix + id
}

// Alive reports whether the agent's session exists.
func (m *TmuxManager) Alive(ctx context.Context, cfg *agent.Config) bool {
	name := m.SessionName(cfg)
	if name == "" {
		return false
	}
	return m.client.HasSession(ctx, name)
}

// RuntimeState captures recent output and classifies it. The result is
// never cached.
func (m *TmuxManager) RuntimeState(ctx context.Context, cfg *agent.Config) (detect.RuntimeState, error) {
	out, err := m.Capture(ctx, cfg, stateLines)
	if err != nil {
		return detect.Unknown, err
	}
	rs := m.detector.Detect(out)
	m.logger.Debug("runtime state",
		"employee_id", cfg.EmployeeID,
		"state", rs.State.String(),
		"elapsed", rs.ElapsedSeconds,
	)
	return rs, nil
}

// Capture returns the last lines of the agent's pane.
func (m *TmuxManager) Capture(ctx context.Context, cfg *agent.Config, lines int) (string, error) {
	name := m.SessionName(cfg)
	if name == "" {
		return "", m.noSession(cfg)
	}
	out, err := m.client.Capture(ctx, name, lines)
	if err != nil {
		return "", errors.NewAgentError("failed to capture output", err).
			WithEmployeeID(cfg.EmployeeID).
			WithSession(name)
	}
	return out, nil
}

// Deliver sends message into the agent's session as a single input.
func (m *TmuxManager) Deliver(ctx context.Context, cfg *agent.Config, message string) error {
	name := m.SessionName(cfg)
	if name == "" {
		return m.noSession(cfg)
	}
	if err := m.client.SendText(ctx, name, message); err != nil {
		return errors.NewCollaboratorError("deliver", errors.Join(errors.ErrDeliveryFailed, err)).
			WithMessage("Failed to assign task").
			WithStderr(commandStderr(err))
	}
	m.logger.Info("message delivered",
		"employee_id", cfg.EmployeeID,
		"session", name,
		"bytes", len(message),
	)
	return nil
}

// Stop shuts the agent's session down. Stopping a session that is not
// running is a no-op.
func (m *TmuxManager) Stop(ctx context.Context, cfg *agent.Config) error {
	name := m.SessionName(cfg)
	if name == "" {
		return nil
	}
	if err := m.client.Stop(ctx, name, m.stopTimeout); err != nil {
		return errors.NewCollaboratorError("stop", err).
			WithMessage("Failed to stop " + name).
			WithStderr(commandStderr(err))
	}
	m.logger.Info("session stopped", "employee_id", cfg.EmployeeID, "session", name)
	return nil
}

func (m *TmuxManager) noSession(cfg *agent.Config) error {
	return errors.NewAgentError("no session ID can be derived", errors.ErrSessionNotRunning).
		WithEmployeeID(cfg.EmployeeID)
}

func commandStderr(err error) string {
	var cmdErr *tmux.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return ""
}
