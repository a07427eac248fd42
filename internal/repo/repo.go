// Package repo locates the repository root and derives the directory layout
// every other component is constructed with.
//
// Discovery runs once per command. Components never consult REPO_ROOT,
// TEAMS_DIR or git on their own; they receive a Layout.
package repo

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRunner runs a git subcommand in dir and returns trimmed stdout.
type GitRunner interface {
	Output(dir string, args ...string) (string, error)
}

// CLIGit runs the git binary.
type CLIGit struct{}

// Output runs git with args in dir. Stderr is discarded.
func (CLIGit) Output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Layout is the resolved set of directories teamctl reads and writes.
type Layout struct {
	Root      string
	TeamsDir  string
	AgentsDir string
	StateDir  string
	Home      string
}

// Options carries explicit overrides, typically from flags or config.
// Empty fields are discovered.
type Options struct {
	RepoRoot  string
	TeamsDir  string
	AgentsDir string
	StateDir  string
	// Start is where discovery begins (default: current directory).
	Start string
}

// Discoverer resolves a Layout. The zero value is not usable; use
// NewDiscoverer.
type Discoverer struct {
	getenv func(string) string
	git    GitRunner
	home   func() (string, error)
	getwd  func() (string, error)
}

// NewDiscoverer returns a Discoverer backed by the process environment and
// the git CLI.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		getenv: os.Getenv,
		git:    CLIGit{},
		home:   os.UserHomeDir,
		getwd:  os.Getwd,
	}
}

// WithGit replaces the git runner.
func (d *Discoverer) WithGit(g GitRunner) *Discoverer {
	d.git = g
	return d
}

// WithEnv replaces the environment lookup.
func (d *Discoverer) WithEnv(getenv func(string) string) *Discoverer {
	d.getenv = getenv
	return d
}

// WithHome replaces the home directory lookup.
func (d *Discoverer) WithHome(home string) *Discoverer {
	d.home = func() (string, error) { return home, nil }
	return d
}

// Discover resolves the layout. Priority for the root: Options.RepoRoot,
// $REPO_ROOT, git superproject, git toplevel, nearest ancestor holding both
// .agent/ and teams/, the start directory. The teams directory honours
// $TEAMS_DIR when no explicit override is given.
func (d *Discoverer) Discover(opts Options) (Layout, error) {
	start := opts.Start
	if start == "" {
		wd, err := d.getwd()
		if err != nil {
			return Layout{}, err
		}
		start = wd
	}

	root := opts.RepoRoot
	if root == "" {
		root = d.FindRoot(start)
	}
	root = expandHome(root, d.home)

	home, _ := d.home()
	layout := Layout{
		Root:      root,
		TeamsDir:  opts.TeamsDir,
		AgentsDir: opts.AgentsDir,
		StateDir:  opts.StateDir,
		Home:      home,
	}

	if layout.TeamsDir == "" {
		layout.TeamsDir = d.getenv("TEAMS_DIR")
	}
	if layout.TeamsDir == "" {
		layout.TeamsDir = filepath.Join(root, "teams")
	}
	if layout.AgentsDir == "" {
		layout.AgentsDir = filepath.Join(root, "agents")
	}
	if layout.StateDir == "" {
		layout.StateDir = filepath.Join(root, ".claude", "state")
	}

	layout.TeamsDir = expandHome(layout.TeamsDir, d.home)
	layout.AgentsDir = expandHome(layout.AgentsDir, d.home)
	layout.StateDir = expandHome(layout.StateDir, d.home)
	return layout, nil
}

// FindRoot applies the root discovery chain from start.
func (d *Discoverer) FindRoot(start string) string {
	if env := d.getenv("REPO_ROOT"); env != "" {
		return env
	}

	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		start = filepath.Dir(start)
	}

	if sp, err := d.git.Output(start, "rev-parse", "--show-superproject-working-tree"); err == nil && sp != "" {
		return sp
	}
	if top, err := d.git.Output(start, "rev-parse", "--show-toplevel"); err == nil && top != "" {
		return top
	}

	for dir := start; ; {
		if isDir(filepath.Join(dir, ".agent")) && isDir(filepath.Join(dir, "teams")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return start
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func expandHome(path string, home func() (string, error)) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	h, err := home()
	if err != nil {
		return path
	}
	return filepath.Join(h, strings.TrimPrefix(path, "~"))
}

// AssignmentsDir holds one last-task record per team.
func (l Layout) AssignmentsDir() string {
	return filepath.Join(l.StateDir, "team-assignments")
}

// LocksDir holds advisory per-team assignment locks.
func (l Layout) LocksDir() string {
	return filepath.Join(l.StateDir, "team-locks")
}

// LogDir holds teamctl's debug log.
func (l Layout) LogDir() string {
	return filepath.Join(l.StateDir, "teamctl")
}

// SkillDirs lists skill roots in search order: repo .agent, home .agent,
// repo .claude, home .claude.
func (l Layout) SkillDirs() []string {
	var dirs []string
	if l.Root != "" {
		dirs = append(dirs, filepath.Join(l.Root, ".agent", "skills"))
	}
	if l.Home != "" {
		dirs = append(dirs, filepath.Join(l.Home, ".agent", "skills"))
	}
	if l.Root != "" {
		dirs = append(dirs, filepath.Join(l.Root, ".claude", "skills"))
	}
	if l.Home != "" {
		dirs = append(dirs, filepath.Join(l.Home, ".claude", "skills"))
	}
	return dirs
}

// Expand expands $VAR and ${VAR} in s. REPO_ROOT resolves to the layout's
// root even when the process environment does not carry it.
func (l Layout) Expand(s string) string {
	return os.Expand(s, func(key string) string {
		if key == "REPO_ROOT" {
			if v := os.Getenv(key); v != "" {
				return v
			}
			return l.Root
		}
		return os.Getenv(key)
	})
}

// Env returns environ with REPO_ROOT set to the layout root when absent, for
// child processes that expand ${REPO_ROOT} themselves.
func (l Layout) Env(environ []string) []string {
	for _, kv := range environ {
		if strings.HasPrefix(kv, "REPO_ROOT=") {
			return environ
		}
	}
	out := make([]string, 0, len(environ)+1)
	out = append(out, environ...)
	return append(out, "REPO_ROOT="+l.Root)
}
