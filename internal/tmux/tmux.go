// Package tmux wraps the tmux CLI for the handful of operations teamctl
// needs against agent sessions: liveness, capture, delivery and creation.
//
// Agent sessions are created by agent-manager on the default tmux server, so
// the default socket is empty (no -L flag). A named socket can be configured
// to isolate sessions, e.g. in tests.
package tmux

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os/exec"
	"slices"
	"strconv"
	"strings"
)

// BaseArgs returns the socket arguments for socket, or none for the default
// server.
func BaseArgs(socket string) []string {
	if socket == "" {
		return nil
	}
	return []string{"-L", socket}
}

// CommandArgs prefixes args with the socket arguments.
func CommandArgs(socket string, args ...string) []string {
	return append(BaseArgs(socket), args...)
}

// CommandContext creates a context-aware exec.Cmd for tmux on socket.
func CommandContext(ctx context.Context, socket string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "tmux", CommandArgs(socket, args...)...)
}

// Runner executes one tmux invocation. stdin may be nil.
type Runner interface {
	Run(ctx context.Context, stdin io.Reader, args ...string) (stdout []byte, err error)
}

// ExecRunner runs the tmux binary.
type ExecRunner struct {
	Socket string
}

// Run executes tmux with args. A non-zero exit is returned as *CommandError
// carrying stderr.
func (r ExecRunner) Run(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	cmd := CommandContext(ctx, r.Socket, args...)
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

// CommandError describes a failed tmux invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	sub := ""
	if len(e.Args) > 0 {
		sub = e.Args[0]
	}
	if e.Stderr != "" {
		return fmt.Sprintf("tmux %s: %s", sub, e.Stderr)
	}
	return fmt.Sprintf("tmux %s: %v", sub, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Client issues tmux commands through a Runner.
type Client struct {
	runner Runner
}

// New returns a Client that runs tmux on socket ("" for the default server).
func New(socket string) *Client {
	return &Client{runner: ExecRunner{Socket: socket}}
}

// NewWithRunner returns a Client backed by r.
func NewWithRunner(r Runner) *Client {
	return &Client{runner: r}
}

// HasSession reports whether a session named name exists. Any failure to
// ask tmux (including no server running) reads as not alive.
func (c *Client) HasSession(ctx context.Context, name string) bool {
	_, err := c.runner.Run(ctx, nil, "has-session", "-t", exactTarget(name))
	return err == nil
}

// Capture returns the last lines of the session's active pane, with wrapped
// lines joined and trailing blank lines removed. lines <= 0 captures the
// visible pane only.
func (c *Client) Capture(ctx context.Context, name string, lines int) (string, error) {
	args := []string{"capture-pane", "-p", "-J", "-t", paneTarget(name)}
	if lines > 0 {
		args = append(args, "-S", "-"+strconv.Itoa(lines))
	}
	out, err := c.runner.Run(ctx, nil, args...)
	if err != nil {
		return "", err
	}
	return trimTrailingBlankLines(string(out)), nil
}

// SendText delivers text to the session as a single bracketed paste and
// then presses Enter, so multi-line text arrives as one message.
func (c *Client) SendText(ctx context.Context, name, text string) error {
	buffer := "teamctl-" + name
	target := paneTarget(name)

	if _, err := c.runner.Run(ctx, strings.NewReader(text), "load-buffer", "-b", buffer, "-"); err != nil {
		return err
	}
	if _, err := c.runner.Run(ctx, nil, "paste-buffer", "-d", "-p", "-b", buffer, "-t", target); err != nil {
		return err
	}
	_, err := c.runner.Run(ctx, nil, "send-keys", "-t", target, "Enter")
	return err
}

// SessionSpec describes a detached session to create.
type SessionSpec struct {
	Name         string
	Dir          string
	Width        int
	Height       int
	HistoryLimit int
	Env          map[string]string
	// Command is the shell command the session runs; empty runs the
	// default shell.
	Command string
}

// NewSession creates a detached session and applies its history limit.
func (c *Client) NewSession(ctx context.Context, spec SessionSpec) error {
	args := []string{"new-session", "-d", "-s", spec.Name}
	if spec.Width > 0 && spec.Height > 0 {
		args = append(args, "-x", strconv.Itoa(spec.Width), "-y", strconv.Itoa(spec.Height))
	}
	if spec.Dir != "" {
		args = append(args, "-c", spec.Dir)
	}
	for _, k := range slices.Sorted(maps.Keys(spec.Env)) {
		args = append(args, "-e", k+"="+spec.Env[k])
	}
	if spec.Command != "" {
		args = append(args, spec.Command)
	}
	if _, err := c.runner.Run(ctx, nil, args...); err != nil {
		return err
	}

	if spec.HistoryLimit > 0 {
		// Best effort; the session is usable without it.
		_, _ = c.runner.Run(ctx, nil, "set-option", "-t", exactTarget(spec.Name), "history-limit", strconv.Itoa(spec.HistoryLimit))
	}
	return nil
}

// KillSession terminates the named session.
func (c *Client) KillSession(ctx context.Context, name string) error {
	_, err := c.runner.Run(ctx, nil, "kill-session", "-t", exactTarget(name))
	return err
}

// exactTarget prevents tmux from prefix-matching "agent-emp-1" against
// "agent-emp-10".
func exactTarget(name string) string {
	return "=" + name
}

// paneTarget addresses the active pane of the exactly-named session.
func paneTarget(name string) string {
	return exactTarget(name) + ":"
}

func trimTrailingBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}
