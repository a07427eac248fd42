package delegate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
)

// DefaultWaitDelay is how long OSExecutor waits for output pipes to close
// after the command is killed. Children that inherited the pipes would
// otherwise hold Run open until they exit.
const DefaultWaitDelay = 5 * time.Second

// ExecResult is the outcome of one external command.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs an external command. A non-zero exit is reported through
// ExecResult.ExitCode, not err; err means the command could not run.
type Executor interface {
	Execute(ctx context.Context, argv []string, stdin string, env []string) (ExecResult, error)
}

// OSExecutor runs commands with os/exec.
type OSExecutor struct {
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// Execute implements Executor. When ctx ends first the command is killed
// and ctx's error is returned.
func (e OSExecutor) Execute(ctx context.Context, argv []string, stdin string, env []string) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = DefaultWaitDelay
	if e.WaitDelay > 0 {
		cmd.WaitDelay = e.WaitDelay
	}
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	if env != nil {
		cmd.Env = env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// CLI delegates to the external agent-manager command.
type CLI struct {
	argv    []string
	env     []string
	timeout time.Duration
	exec    Executor
	logger  *logging.Logger
}

// CLIOption configures a CLI delegator.
type CLIOption func(*CLI)

// WithEnv sets the environment passed to agent-manager.
func WithEnv(env []string) CLIOption {
	return func(c *CLI) { c.env = env }
}

// WithTimeout bounds each invocation. Zero, the default, disables the
// bound: an issued start or assign is waited on however long it takes.
func WithTimeout(d time.Duration) CLIOption {
	return func(c *CLI) { c.timeout = d }
}

// WithExecutor replaces the command runner.
func WithExecutor(e Executor) CLIOption {
	return func(c *CLI) { c.exec = e }
}

// WithCLILogger attaches a logger.
func WithCLILogger(l *logging.Logger) CLIOption {
	return func(c *CLI) { c.logger = l }
}

// NewCLI returns a CLI delegator invoking argv, e.g.
// ["python3", "/repo/.agent/skills/agent-manager/scripts/main.py"].
func NewCLI(argv []string, opts ...CLIOption) *CLI {
	c := &CLI{
		argv:    argv,
		env:     os.Environ(),
		exec:    OSExecutor{},
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Delegator.
func (c *CLI) Name() string { return "agent-manager" }

// Command returns the agent-manager command line.
func (c *CLI) Command() string {
	return strings.Join(c.argv, " ")
}

// Start runs `agent-manager start <emp> [--working-dir DIR]`.
func (c *CLI) Start(ctx context.Context, employeeID, workingDir string) error {
	args := []string{"start", employeeID}
	if workingDir != "" {
		args = append(args, "--working-dir", workingDir)
	}
	res, err := c.run(ctx, "", args...)
	if err != nil || res.ExitCode != 0 {
		return c.failure("start", "Failed to start lead agent", errors.ErrStartFailed, res, err)
	}
	return nil
}

// Assign runs `agent-manager assign <emp>` with message on stdin.
func (c *CLI) Assign(ctx context.Context, employeeID, message string) error {
	res, err := c.run(ctx, message, "assign", employeeID)
	if err != nil || res.ExitCode != 0 {
		return c.failure("assign", "Failed to assign task", errors.ErrDeliveryFailed, res, err)
	}
	return nil
}

func (c *CLI) run(ctx context.Context, stdin string, args ...string) (ExecResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, c.argv...), args...)
	start := time.Now()
	res, err := c.exec.Execute(ctx, argv, stdin, c.env)
	c.logger.Debug("agent-manager call",
		"args", args,
		"exit_code", res.ExitCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	return res, err
}

// failure reports a failed call. A call cut off by the timeout gets its own
// message, since the agent-manager may have done the work anyway.
func (c *CLI) failure(op, message string, sentinel error, res ExecResult, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && c.timeout > 0 {
		return collaboratorError(op, message, sentinel, res, errors.Join(errors.ErrCollaboratorTimeout, err)).
			WithMessage(fmt.Sprintf("agent-manager %s timed out after %s", op, c.timeout)).
			WithHint("The call may have taken effect; check with: teamctl status").
			WithHint("Raise or disable agent_manager.timeout_seconds")
	}
	return collaboratorError(op, message, sentinel, res, err)
}

func collaboratorError(op, message string, sentinel error, res ExecResult, err error) *errors.CollaboratorError {
	cause := sentinel
	if err != nil {
		cause = errors.Join(sentinel, err)
	}
	return errors.NewCollaboratorError(op, cause).
		WithMessage(message).
		WithExitCode(res.ExitCode).
		WithStderr(res.Stderr)
}
