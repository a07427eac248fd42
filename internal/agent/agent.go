// Package agent reads agent definitions and derives their tmux session IDs.
//
// Each agent lives in <agents_dir>/<EMP_ID>.md with a front-matter block:
//
//	---
//	name: ada-EMP_0001
//	description: Backend developer
//	launcher: claude
//	enabled: true
//	working_directory: ${REPO_ROOT}/services
//	---
package agent

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/frontmatter"
	"github.com/Iron-Ham/teamctl/internal/logging"
)

// Config is one agent's static definition.
type Config struct {
	// EmployeeID is the declared employee_id, or the file stem.
	EmployeeID  string
	Name        string
	Description string
	// Launcher names the interactive program the agent runs (e.g. "claude").
	Launcher         string
	Enabled          bool
	WorkingDirectory string
	// FileID is the stored identifier a session ID is derived from. It
	// defaults to the file stem.
	FileID string
	File   string
}

type frontMatter struct {
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	Launcher         string `yaml:"launcher"`
	Enabled          *bool  `yaml:"enabled"`
	WorkingDirectory string `yaml:"working_directory"`
	EmployeeID       string `yaml:"employee_id"`
	FileID           string `yaml:"file_id"`
}

// Directory resolves agents from a directory of markdown files.
type Directory struct {
	fs     afero.Fs
	dir    string
	expand func(string) string
	logger *logging.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithFs replaces the filesystem.
func WithFs(fs afero.Fs) Option {
	return func(d *Directory) { d.fs = fs }
}

// WithExpander sets the placeholder expander for working_directory.
func WithExpander(expand func(string) string) Option {
	return func(d *Directory) { d.expand = expand }
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// NewDirectory returns a Directory over dir.
func NewDirectory(dir string, opts ...Option) *Directory {
	d := &Directory{
		fs:     afero.NewOsFs(),
		dir:    dir,
		expand: os.ExpandEnv,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// List returns every parseable agent, sorted by employee ID.
func (d *Directory) List() ([]*Config, error) {
	paths, err := afero.Glob(d.fs, filepath.Join(d.dir, "*.md"))
	if err != nil {
		return nil, errors.NewAgentError("failed to list agents", err)
	}
	sort.Strings(paths)

	agents := make([]*Config, 0, len(paths))
	for _, path := range paths {
		cfg, err := d.load(path)
		if err != nil {
			d.logger.Debug("skipping agent file", "file", path, "error", err)
			continue
		}
		agents = append(agents, cfg)
	}
	return agents, nil
}

// Resolve finds an agent by file stem (case-insensitive), then declared
// employee_id, then declared name.
func (d *Directory) Resolve(identifier string) (*Config, error) {
	if identifier != "" {
		agents, err := d.List()
		if err != nil {
			return nil, err
		}

		for _, match := range []func(*Config) bool{
			func(c *Config) bool { return strings.EqualFold(stem(c.File), identifier) },
			func(c *Config) bool { return c.EmployeeID == identifier },
			func(c *Config) bool { return c.Name == identifier },
		} {
			for _, cfg := range agents {
				if match(cfg) {
					return cfg, nil
				}
			}
		}
	}

	return nil, errors.NewNotFoundError("agent", identifier).WithCause(errors.ErrAgentNotFound)
}

// DisplayName returns the agent's declared name, or the identifier itself
// when the agent cannot be resolved or has no name.
func (d *Directory) DisplayName(identifier string) string {
	cfg, err := d.Resolve(identifier)
	if err != nil || cfg.Name == "" {
		return identifier
	}
	return cfg.Name
}

func (d *Directory) load(path string) (*Config, error) {
	content, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return nil, err
	}
	var fm frontMatter
	desc, err := frontmatter.Parse(content, &fm)
	if err != nil {
		return nil, err
	}

	s := stem(path)
	cfg := &Config{
		EmployeeID:  fm.EmployeeID,
		Name:        fm.Name,
		Description: fm.Description,
		Launcher:    fm.Launcher,
		Enabled:     fm.Enabled == nil || *fm.Enabled,
		FileID:      fm.FileID,
		File:        path,
	}
	if cfg.EmployeeID == "" {
		cfg.EmployeeID = s
	}
	if cfg.FileID == "" {
		cfg.FileID = s
	}
	if cfg.Description == "" {
		cfg.Description = firstLine(desc)
	}
	if fm.WorkingDirectory != "" {
		cfg.WorkingDirectory = d.expand(fm.WorkingDirectory)
	}
	return cfg, nil
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(strings.TrimLeft(line, "# "))
}

var employeeIDPattern = regexp.MustCompile(`(?i)EMP[_-]?\d+`)

// SessionID derives the opaque session ID for an agent: the stored file ID,
// or else an EMP_NNNN pattern parsed from the display name, lowercased with
// underscores turned into hyphens. EMP_0001 becomes emp-0001. An agent
// with neither yields "".
func SessionID(cfg *Config) string {
	id := cfg.FileID
	if id == "" {
		id = employeeIDPattern.FindString(cfg.Name)
	}
	return strings.ReplaceAll(strings.ToLower(id), "_", "-")
}
