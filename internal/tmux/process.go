package tmux

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// DefaultGracefulStopTimeout is how long Stop waits after Ctrl+C before
// killing the session.
const DefaultGracefulStopTimeout = 2 * time.Second

const exitPollInterval = 50 * time.Millisecond

// PanePID returns the PID of the process running in the session's pane, or
// 0 when it cannot be determined.
func (c *Client) PanePID(ctx context.Context, name string) int {
	out, err := c.runner.Run(ctx, nil, "display-message", "-p", "-t", paneTarget(name), "#{pane_pid}")
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0
	}
	return pid
}

// ProcessTree is a root PID and the descendants observed under it, parents
// before children.
type ProcessTree struct {
	Root        int
	Descendants []int
}

// SnapshotTree walks the children of pid with pgrep -P, breadth first. The
// snapshot must be taken while the root is alive; once it dies its children
// are reparented and can no longer be found from it.
func SnapshotTree(pid int) ProcessTree {
	tree := ProcessTree{Root: pid}
	if pid <= 0 {
		return tree
	}
	queue := []int{pid}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, child := range childPIDs(parent) {
			tree.Descendants = append(tree.Descendants, child)
			queue = append(queue, child)
		}
	}
	return tree
}

func childPIDs(pid int) []int {
	out, err := exec.Command("pgrep", "-P", strconv.Itoa(pid)).Output()
	if err != nil {
		// pgrep exits 1 when there are no children.
		return nil
	}
	var pids []int
	for _, field := range strings.Fields(string(out)) {
		if child, err := strconv.Atoi(field); err == nil {
			pids = append(pids, child)
		}
	}
	return pids
}

// Kill sends SIGKILL to every process of the tree still alive, deepest
// first so nothing is orphaned mid-kill.
func (t ProcessTree) Kill() {
	for i := len(t.Descendants) - 1; i >= 0; i-- {
		killIfAlive(t.Descendants[i])
	}
	killIfAlive(t.Root)
}

// Alive returns the PIDs of the tree that still exist.
func (t ProcessTree) Alive() []int {
	var alive []int
	for _, pid := range append([]int{t.Root}, t.Descendants...) {
		if IsProcessAlive(pid) {
			alive = append(alive, pid)
		}
	}
	return alive
}

func killIfAlive(pid int) {
	if IsProcessAlive(pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
}

// IsProcessAlive reports whether pid exists, using signal 0.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// WaitForExit polls until pid is gone, the timeout passes or ctx is done.
// It reports whether the process exited.
func WaitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	if !IsProcessAlive(pid) {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(exitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return !IsProcessAlive(pid)
		case <-timer.C:
			return !IsProcessAlive(pid)
		case <-ticker.C:
			if !IsProcessAlive(pid) {
				return true
			}
		}
	}
}

// Stop shuts an agent session down: Ctrl+C to the pane, a bounded wait for
// the pane process, kill-session, then SIGKILL for whatever survived in the
// pane's process tree. The tmux server is left running because agent
// sessions share it. Stopping a session that does not exist is a no-op.
func (c *Client) Stop(ctx context.Context, name string, gracefulTimeout time.Duration) error {
	if !c.HasSession(ctx, name) {
		return nil
	}

	tree := SnapshotTree(c.PanePID(ctx, name))

	_, _ = c.runner.Run(ctx, nil, "send-keys", "-t", paneTarget(name), "C-c")
	if tree.Root > 0 {
		WaitForExit(ctx, tree.Root, gracefulTimeout)
	}

	err := c.KillSession(ctx, name)
	tree.Kill()
	if err != nil && c.HasSession(ctx, name) {
		return err
	}
	return nil
}
