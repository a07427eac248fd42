package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

func writeLock(t *testing.T, dir, team string, pid int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(Lock{Team: team, PID: pid, Hostname: "elsewhere"})
	if err := os.WriteFile(LockPath(dir, team), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "team-locks")

	lock, err := AcquireLock(dir, "backend", nil)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	if lock.PID != os.Getpid() || lock.Team != "backend" {
		t.Errorf("lock = %+v", lock)
	}

	read, err := ReadLock(LockPath(dir, "backend"))
	if err != nil {
		t.Fatalf("ReadLock() error = %v", err)
	}
	if read.Team != "backend" || read.PID != os.Getpid() {
		t.Errorf("ReadLock() = %+v", read)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(LockPath(dir, "backend")); !os.IsNotExist(err) {
		t.Errorf("lock file still present after Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestAcquireLock_HeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()
	writeLock(t, dir, "backend", os.Getpid())

	_, err := AcquireLock(dir, "backend", nil)
	if !errors.Is(err, errors.ErrTeamLocked) {
		t.Fatalf("AcquireLock() error = %v, want ErrTeamLocked", err)
	}
	var conflict *errors.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error type = %T, want *ConflictError", err)
	}
	if conflict.Resource != "backend" {
		t.Errorf("Resource = %q", conflict.Resource)
	}
	if len(errors.Hints(err)) == 0 {
		t.Error("expected a remediation hint")
	}
}

func TestAcquireLock_CleansStaleLock(t *testing.T) {
	dir := t.TempDir()
	writeLock(t, dir, "backend", 999999999)

	lock, err := AcquireLock(dir, "backend", nil)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	defer lock.Release()

	if lock.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", lock.PID, os.Getpid())
	}
}

func TestAcquireLock_UnreadableLock(t *testing.T) {
	tests := []struct {
		name    string
		content string
		age     time.Duration
		wantErr bool
	}{
		{"empty and fresh", "", 0, true},
		{"truncated and fresh", `{"team": "back`, time.Second, true},
		{"empty and abandoned", "", staleGrace + time.Minute, false},
		{"truncated and abandoned", `{"team": "back`, time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := LockPath(dir, "backend")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if tt.age > 0 {
				old := time.Now().Add(-tt.age)
				if err := os.Chtimes(path, old, old); err != nil {
					t.Fatal(err)
				}
			}

			lock, err := AcquireLock(dir, "backend", nil)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrTeamLocked) {
					t.Fatalf("AcquireLock() error = %v, want ErrTeamLocked", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AcquireLock() error = %v", err)
			}
			defer lock.Release()

			read, err := ReadLock(path)
			if err != nil {
				t.Fatalf("ReadLock() error = %v", err)
			}
			if read.PID != os.Getpid() {
				t.Errorf("PID = %d, want %d", read.PID, os.Getpid())
			}
		})
	}
}

func TestRemoveIfUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := LockPath(dir, "backend")

	t.Run("removes the observed lock", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := removeIfUnchanged(path, []byte("stale")); err != nil {
			t.Fatalf("removeIfUnchanged() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("lock still present: %v", err)
		}
	})

	t.Run("keeps a lock written after the read", func(t *testing.T) {
		writeLock(t, dir, "backend", os.Getpid())
		live, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := removeIfUnchanged(path, []byte(`{"team":"backend","pid":999999999}`)); err != nil {
			t.Fatalf("removeIfUnchanged() error = %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("live lock was removed: %v", err)
		}
		if string(got) != string(live) {
			t.Errorf("lock = %q, want %q", got, live)
		}
	})

	t.Run("missing lock", func(t *testing.T) {
		if err := removeIfUnchanged(filepath.Join(dir, "none.lock"), nil); err != nil {
			t.Errorf("removeIfUnchanged() error = %v", err)
		}
	})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "backend.lock" {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func TestRelease_NotOwner(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireLock(dir, "backend", nil)
	if err != nil {
		t.Fatal(err)
	}
	writeLock(t, dir, "backend", os.Getpid()+1)

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(LockPath(dir, "backend")); err != nil {
		t.Errorf("foreign lock was removed: %v", err)
	}
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestFileLocker(t *testing.T) {
	locker := FileLocker{Dir: t.TempDir()}

	release, err := locker.Lock("backend")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := locker.Lock("backend"); !errors.Is(err, errors.ErrTeamLocked) {
		t.Errorf("second Lock() error = %v, want ErrTeamLocked", err)
	}
	if _, err := locker.Lock("frontend"); err != nil {
		t.Errorf("Lock(frontend) error = %v, locks are per team", err)
	}

	release()
	again, err := locker.Lock("backend")
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	again()
}
