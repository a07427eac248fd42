package team

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/frontmatter"
	"github.com/Iron-Ham/teamctl/internal/logging"
)

// Store reads team definitions from a directory of markdown files.
// Nothing is cached; every call rereads the directory.
type Store struct {
	fs     afero.Fs
	dir    string
	expand func(string) string
	logger *logging.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFs replaces the filesystem (default: the OS filesystem).
func WithFs(fs afero.Fs) StoreOption {
	return func(s *Store) { s.fs = fs }
}

// WithExpander sets the function used to expand placeholders in
// working_directory (default: os.ExpandEnv).
func WithExpander(expand func(string) string) StoreOption {
	return func(s *Store) { s.expand = expand }
}

// WithLogger attaches a logger for skipped files.
func WithLogger(l *logging.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a Store over dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		fs:     afero.NewOsFs(),
		dir:    dir,
		expand: os.ExpandEnv,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every team with a front-matter block and a name, sorted by
// name. When two files declare the same name the later file (by path)
// wins. A missing directory yields no teams.
func (s *Store) List() ([]*Config, error) {
	paths, err := afero.Glob(s.fs, filepath.Join(s.dir, "*.md"))
	if err != nil {
		return nil, errors.NewTeamError("failed to list teams", err).WithFile(s.dir)
	}
	sort.Strings(paths)

	byName := make(map[string]*Config, len(paths))
	for _, path := range paths {
		cfg, err := s.Load(path)
		if err != nil {
			s.logger.Debug("skipping team file", "file", path, "error", err)
			continue
		}
		if cfg.Name == "" {
			s.logger.Debug("skipping team file without name", "file", path)
			continue
		}
		byName[cfg.Name] = cfg
	}

	teams := make([]*Config, 0, len(byName))
	for _, cfg := range byName {
		teams = append(teams, cfg)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func names(teams []*Config) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.Name
	}
	return out
}

// Resolve finds a team by exact declared name, then by case-insensitive
// file stem.
func (s *Store) Resolve(identifier string) (*Config, error) {
	teams, err := s.List()
	if err != nil {
		return nil, err
	}

	for _, cfg := range teams {
		if cfg.Name == identifier {
			return cfg, nil
		}
	}
	for _, cfg := range teams {
		if strings.EqualFold(cfg.Stem, identifier) {
			return cfg, nil
		}
	}

	return nil, errors.NewNotFoundError("team", identifier).
		WithCause(errors.ErrTeamNotFound).
		WithAlternatives(names(teams))
}

// Load parses a single team file. The returned Config may have an empty
// Name; List treats that as not-a-team.
func (s *Store) Load(path string) (*Config, error) {
	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, errors.NewTeamError("failed to read team file", err).WithFile(path)
	}

	var fm frontMatter
	body, err := frontmatter.Parse(content, &fm)
	if err != nil {
		return nil, errors.NewTeamError("failed to parse team file", err).WithFile(path)
	}
	keys, err := frontmatter.Keys(content)
	if err != nil {
		return nil, errors.NewTeamError("failed to parse team file", err).WithFile(path)
	}

	declared := make(map[string]bool, len(keys))
	for _, k := range keys {
		declared[k] = true
	}

	cfg := &Config{
		Name:        fm.Name,
		Description: fm.Description,
		LeadAgent:   fm.LeadAgent,
		Members:     fm.Members,
		Skills:      []string(fm.Skills),
		Enabled:     fm.Enabled == nil || *fm.Enabled,
		Body:        body,
		File:        path,
		Stem:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		declared:    declared,
	}
	if fm.WorkingDirectory != "" {
		cfg.WorkingDirectory = s.expand(fm.WorkingDirectory)
	}
	return cfg, nil
}

// Path returns where a team named name is stored.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".md")
}
