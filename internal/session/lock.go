package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
	"github.com/Iron-Ham/teamctl/internal/tmux"
)

// LockSuffix is appended to the team name to form its lock file name.
const LockSuffix = ".lock"

// Lock represents an acquired team assignment lock.
type Lock struct {
	Team      string    `json:"team"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`

	// Internal fields (not serialized)
	lockFile string
	logger   *logging.Logger
}

// LockPath returns the lock file path for team within locksDir.
func LockPath(locksDir, team string) string {
	return filepath.Join(locksDir, team+LockSuffix)
}

// staleGrace is how long an unreadable lock file is left for its writer to
// finish before it counts as abandoned.
const staleGrace = 5 * time.Second

// AcquireLock takes the advisory assignment lock for team. A lock held by a
// live process yields a ConflictError. A lock left behind by a dead process,
// or one that is still unreadable after staleGrace, is removed first. The
// logger may be nil.
func AcquireLock(locksDir, team string, logger *logging.Logger) (*Lock, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	lockPath := LockPath(locksDir, team)

	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := clearStale(lockPath, team, logger); err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	lock := &Lock{
		Team:      team,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now().UTC(),
		lockFile:  lockPath,
		logger:    logger,
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	// O_EXCL loses the race cleanly if another process got here first.
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			existing, readErr := ReadLock(lockPath)
			if readErr != nil {
				existing = &Lock{Team: team, lockFile: lockPath}
			}
			return nil, lockedError(team, existing)
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	logger.Debug("team lock acquired", "team", team, "pid", lock.PID)
	return lock, nil
}

// clearStale removes the lock at lockPath when its holder is gone. It
// returns a ConflictError when the lock is held, or may still be in the
// middle of being written.
func clearStale(lockPath, team string, logger *logging.Logger) error {
	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	existing, parseErr := parseLock(data, lockPath)
	if parseErr == nil {
		if tmux.IsProcessAlive(existing.PID) {
			logger.Warn("failed to acquire lock",
				"team", team,
				"holder_pid", existing.PID,
				"holder_host", existing.Hostname,
			)
			return lockedError(team, existing)
		}
	} else {
		info, err := os.Stat(lockPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to stat lock file: %w", err)
		}
		if time.Since(info.ModTime()) < staleGrace {
			return lockedError(team, &Lock{Team: team, lockFile: lockPath})
		}
		existing = &Lock{Team: team, lockFile: lockPath}
	}

	if err := removeIfUnchanged(lockPath, data); err != nil {
		return err
	}
	logger.Warn("stale lock cleaned", "team", team, "old_pid", existing.PID, "unreadable", parseErr != nil)
	return nil
}

// removeIfUnchanged deletes lockPath only if it still holds observed. The
// file is first renamed aside, which is atomic, so a lock another process
// created after observed was read is put back instead of deleted.
func removeIfUnchanged(lockPath string, observed []byte) error {
	aside := fmt.Sprintf("%s.stale-%d", lockPath, os.Getpid())
	if err := os.Rename(lockPath, aside); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove stale lock: %w", err)
	}
	defer os.Remove(aside)

	current, err := os.ReadFile(aside)
	if err == nil && bytes.Equal(current, observed) {
		return nil
	}
	// Link fails if yet another lock appeared meanwhile; that one stands.
	if err := os.Link(aside, lockPath); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to restore lock file: %w", err)
	}
	return nil
}

// Release removes the lock file if this process still owns it. Safe to call
// multiple times and on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lockFile == "" {
		return nil
	}

	existing, err := ReadLock(l.lockFile)
	if err != nil || existing.PID != l.PID {
		return nil
	}
	if err := os.Remove(l.lockFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	if l.logger != nil {
		l.logger.Debug("team lock released", "team", l.Team)
	}
	return nil
}

// ReadLock reads a lock file.
func ReadLock(lockPath string) (*Lock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	return parseLock(data, lockPath)
}

func parseLock(data []byte, lockPath string) (*Lock, error) {
	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	lock.lockFile = lockPath
	return &lock, nil
}

func lockedError(team string, holder *Lock) error {
	msg := fmt.Sprintf("Team '%s' is being assigned by another process", team)
	if holder.PID > 0 {
		msg = fmt.Sprintf("%s (PID %d on %s)", msg, holder.PID, holder.Hostname)
	}
	return errors.NewConflictError(msg, errors.ErrTeamLocked).
		WithResource(team).
		WithHint("Wait for the other assignment to finish, or remove " + holder.lockFile)
}

// FileLocker hands out team locks under a directory.
type FileLocker struct {
	Dir    string
	Logger *logging.Logger
}

// Lock acquires the team's lock and returns its release function.
func (f FileLocker) Lock(team string) (func(), error) {
	lock, err := AcquireLock(f.Dir, team, f.Logger)
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release() }, nil
}
