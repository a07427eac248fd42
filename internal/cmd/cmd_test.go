//go:build integration

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/testutil"
)

const backendTeam = `---
name: backend
description: Backend services
lead_agent: EMP_0001
members:
  - employee_id: EMP_0001
    role: lead
  - employee_id: EMP_0002
    role: dev
---

# Backend Team

Ship the API.
`

var brokenTeam = testutil.TeamFile("broken", "Lead outside the roster", "EMP_0009", "EMP_0002")

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// resetFlags restores every subcommand flag to its default; cobra keeps
// parsed values on the package-level command tree between executions.
func resetFlags() {
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
}

// setupRepo creates a repository with teams/ and agents/ and returns the
// arguments pointing teamctl at it.
func setupRepo(t *testing.T, teams map[string]string) (root string, args []string) {
	t.Helper()
	resetFlags()

	files := map[string]string{
		"agents/EMP_0001.md": testutil.AgentFile("ada", "claude"),
		"agents/EMP_0002.md": testutil.AgentFile("grace", "claude"),
	}
	for name, content := range teams {
		files[filepath.Join("teams", name)] = content
	}
	root = testutil.SetupWorkspace(t, files)

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, ".config"))
	t.Setenv("TEAMS_DIR", "")
	t.Setenv("TEAMCTL_LOGGING_ENABLED", "false")
	return root, []string{"--repo-root", root}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "teamctl" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "teamctl")
	}

	expected := []string{"list", "show", "status", "assign", "monitor", "create", "validate", "stop", "logs", "config", "dashboard"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, name := range expected {
		if !cmdMap[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestListCommand(t *testing.T) {
	_, args := setupRepo(t, map[string]string{"backend.md": backendTeam})

	out, err := executeCommand(rootCmd, append([]string{"list"}, args...)...)
	if err != nil {
		t.Fatalf("list error = %v\n%s", err, out)
	}
	for _, want := range []string{
		"📋 Teams:",
		"📦 backend",
		"   Description: Backend services",
		"   Lead Agent: EMP_0001 (ada)",
		"   Members: EMP_0001(lead), EMP_0002(dev)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestListCommand_Empty(t *testing.T) {
	root, args := setupRepo(t, nil)

	out, err := executeCommand(rootCmd, append([]string{"list"}, args...)...)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	want := "  No teams configured in " + filepath.Join(root, "teams") + "/"
	if !strings.Contains(out, want) {
		t.Errorf("list output missing %q:\n%s", want, out)
	}
}

func TestListCommand_JSON(t *testing.T) {
	_, args := setupRepo(t, map[string]string{"backend.md": backendTeam})

	out, err := executeCommand(rootCmd, append([]string{"list", "--json"}, args...)...)
	if err != nil {
		t.Fatalf("list --json error = %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 1 {
		t.Fatalf("got %d teams, want 1", len(got))
	}
	if got[0]["name"] != "backend" || got[0]["lead_agent_name"] != "ada" {
		t.Errorf("unexpected summary: %v", got[0])
	}
	if got[0]["working_directory"] != nil {
		t.Errorf("working_directory = %v, want null", got[0]["working_directory"])
	}
}

func TestShowCommand(t *testing.T) {
	_, args := setupRepo(t, map[string]string{"backend.md": backendTeam})

	out, err := executeCommand(rootCmd, append([]string{"show", "Backend"}, args...)...)
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	for _, want := range []string{
		"📦 Team: backend",
		"Lead Agent: EMP_0001 (ada)",
		"  - EMP_0001 (ada) - lead 👑",
		"  - EMP_0002 (grace) - dev",
		"Team Documentation:",
		"Ship the API.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestShowCommand_NotFound(t *testing.T) {
	_, args := setupRepo(t, map[string]string{"backend.md": backendTeam})

	_, err := executeCommand(rootCmd, append([]string{"show", "nope"}, args...)...)
	if !errors.Is(err, errors.ErrTeamNotFound) {
		t.Fatalf("show error = %v, want ErrTeamNotFound", err)
	}
}

func TestCreateCommand(t *testing.T) {
	root, args := setupRepo(t, nil)

	out, err := executeCommand(rootCmd, append([]string{
		"create", "frontend", "--lead", "EMP_0001", "--members", "EMP_0001", "EMP_0002",
	}, args...)...)
	if err != nil {
		t.Fatalf("create error = %v\n%s", err, out)
	}

	path := filepath.Join(root, "teams", "frontend.md")
	for _, want := range []string{
		"✅ Created teams directory: " + filepath.Join(root, "teams"),
		"✅ Team created: frontend",
		"   Configuration: " + path,
		"  3. Assign a task: teamctl assign frontend",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("create output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("team file not written: %v", err)
	}
	if !strings.Contains(string(data), "EMP_0002") {
		t.Errorf("team file is missing the positional member:\n%s", data)
	}

	resetFlags()
	_, err = executeCommand(rootCmd, append([]string{"create", "frontend", "--lead", "EMP_0001"}, args...)...)
	if !errors.Is(err, errors.ErrTeamExists) {
		t.Errorf("second create error = %v, want ErrTeamExists", err)
	}
}

func TestValidateCommand(t *testing.T) {
	_, args := setupRepo(t, map[string]string{
		"backend.md": backendTeam,
		"broken.md":  brokenTeam,
	})

	out, err := executeCommand(rootCmd, append([]string{"validate"}, args...)...)
	if !errors.Is(err, errors.ErrTeamInvalid) {
		t.Fatalf("validate error = %v, want ErrTeamInvalid", err)
	}
	if !strings.Contains(out, "✅ backend") {
		t.Errorf("valid team not reported:\n%s", out)
	}
	if !strings.Contains(out, "   - Lead agent 'EMP_0009' not in members list") {
		t.Errorf("problem not reported:\n%s", out)
	}

	out, err = executeCommand(rootCmd, append([]string{"validate", "backend"}, args...)...)
	if err != nil {
		t.Errorf("validate backend error = %v\n%s", err, out)
	}
}

func TestAssignCommand_MissingTaskFile(t *testing.T) {
	_, args := setupRepo(t, map[string]string{"backend.md": backendTeam})

	_, err := executeCommand(rootCmd, append([]string{"assign", "backend", "--task-file", "/does/not/exist"}, args...)...)
	if err == nil || !strings.Contains(err.Error(), "Task file not found") {
		t.Fatalf("assign error = %v, want task file not found", err)
	}
}
