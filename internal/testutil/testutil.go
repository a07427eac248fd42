// Package testutil provides testing utilities for teamctl tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetupWorkspace creates a temporary repository root holding files, keyed
// by path relative to the root, e.g. "teams/backend.md". The directory is
// removed when the test completes.
func SetupWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return dir
}

// WriteFiles writes files under dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		fullPath := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// AgentFile renders a minimal agent definition.
func AgentFile(name, launcher string) string {
	return fmt.Sprintf("---\nname: %s\nlauncher: %s\n---\n", name, launcher)
}

// TeamFile renders a team definition with the given lead and members. The
// lead gets the "lead" role and everyone else "dev".
func TeamFile(name, description, lead string, members ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\nname: %s\ndescription: %s\nlead_agent: %s\nmembers:\n", name, description, lead)
	for _, m := range members {
		role := "dev"
		if m == lead {
			role = "lead"
		}
		fmt.Fprintf(&b, "  - employee_id: %s\n    role: %s\n", m, role)
	}
	b.WriteString("---\n")
	return b.String()
}

// InitGitRepo turns dir into a git repository with one commit.
func InitGitRepo(t *testing.T, dir string) {
	t.Helper()

	steps := [][]string{
		{"init"},
		{"config", "user.email", "test@teamctl.dev"},
		{"config", "user.name", "teamctl Test"},
		{"add", "-A"},
		{"commit", "--allow-empty", "-m", "Initial commit"},
	}
	for _, args := range steps {
		if err := runGit(dir, args...); err != nil {
			t.Fatalf("git %s failed: %v", strings.Join(args, " "), err)
		}
	}
}

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

// SkipIfNoTmux skips the test if tmux is not installed.
func SkipIfNoTmux(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not found in PATH, skipping test")
	}
}

// runGit runs a git command in the specified directory.
func runGit(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=teamctl Test",
		"GIT_AUTHOR_EMAIL=test@teamctl.dev",
		"GIT_COMMITTER_NAME=teamctl Test",
		"GIT_COMMITTER_EMAIL=test@teamctl.dev",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &gitError{args: args, output: string(output), err: err}
	}
	return nil
}

type gitError struct {
	args   []string
	output string
	err    error
}

func (e *gitError) Error() string {
	return e.err.Error() + ": " + e.output
}

func (e *gitError) Unwrap() error {
	return e.err
}
