// Package record persists the last task assigned to each team so it can be
// recovered or re-sent after the team stops.
package record

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

// TimeFormat is the timestamp layout written into records.
const TimeFormat = "2006-01-02 15:04:05"

// Store writes one record file per team under dir.
type Store struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithFs replaces the filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store rooted at dir (normally
// <state_dir>/team-assignments).
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{fs: afero.NewOsFs(), dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the record path for team.
func (s *Store) Path(team string) string {
	return filepath.Join(s.dir, team+".md")
}

// Render returns the record content for team and task at t.
func Render(team, task string, t time.Time) string {
	return fmt.Sprintf("# Last team task: %s\n\nUpdated: %s UTC\n\n%s\n",
		team, t.UTC().Format(TimeFormat), strings.TrimSpace(task))
}

// Save overwrites the team's record with task and returns its path. Errors
// are PersistenceErrors; callers treat them as warnings.
func (s *Store) Save(team, task string) (string, error) {
	path := s.Path(team)
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.NewPersistenceError(path, err)
	}
	if err := writeAtomic(s.fs, path, []byte(Render(team, task, s.now()))); err != nil {
		return "", errors.NewPersistenceError(path, err)
	}
	return path, nil
}

// writeAtomic writes through a temp file in the same directory and renames
// it into place, so readers never see a partial record.
func writeAtomic(fs afero.Fs, path string, data []byte) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := fs.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
