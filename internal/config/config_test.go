package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Tmux.SessionPrefix != "agent-" {
		t.Errorf("Tmux.SessionPrefix = %q, want %q", cfg.Tmux.SessionPrefix, "agent-")
	}
	if cfg.Tmux.Socket != "" {
		t.Errorf("Tmux.Socket = %q, want default server", cfg.Tmux.Socket)
	}
	if cfg.AgentManager.Mode != ModeAuto {
		t.Errorf("AgentManager.Mode = %q, want %q", cfg.AgentManager.Mode, ModeAuto)
	}
	if cfg.Monitor.Lines != 50 {
		t.Errorf("Monitor.Lines = %d, want 50", cfg.Monitor.Lines)
	}
	if cfg.Monitor.IntervalMs != 3000 {
		t.Errorf("Monitor.IntervalMs = %d, want 3000", cfg.Monitor.IntervalMs)
	}
	if !cfg.Assign.Lock {
		t.Error("Assign.Lock should be true by default")
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()

	if got := cfg.Monitor.Interval(); got != 3*time.Second {
		t.Errorf("Monitor.Interval() = %v, want 3s", got)
	}
	if got := cfg.Status.StuckAfter(); got != 15*time.Minute {
		t.Errorf("Status.StuckAfter() = %v, want 15m", got)
	}
	if got := cfg.AgentManager.Timeout(); got != 0 {
		t.Errorf("AgentManager.Timeout() = %v, want 0 (no bound)", got)
	}
	if got := cfg.Tmux.ReadyTimeout(); got != time.Minute {
		t.Errorf("Tmux.ReadyTimeout() = %v, want 1m", got)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		if got, want := ConfigDir(), "/custom/config/teamctl"; got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		home, _ := os.UserHomeDir()
		if got, want := ConfigDir(), filepath.Join(home, ".config", "teamctl"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	if got, want := ConfigFile(), "/custom/config/teamctl/config.yaml"; got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/skills", filepath.Join(home, "skills")},
		{"/abs/path", "/abs/path"},
		{"rel/~", "rel/~"},
	}

	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Monitor.Lines != 50 {
		t.Errorf("Get().Monitor.Lines = %d, want 50", cfg.Monitor.Lines)
	}
}

func TestLoad_Overrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.Set("monitor.lines", 120)
	viper.Set("agent_manager.mode", ModeTmux)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Monitor.Lines != 120 {
		t.Errorf("Monitor.Lines = %d, want 120", cfg.Monitor.Lines)
	}
	if cfg.AgentManager.Mode != ModeTmux {
		t.Errorf("AgentManager.Mode = %q, want %q", cfg.AgentManager.Mode, ModeTmux)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.Set("agent_manager.mode", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unknown mode")
	}
	if got := Get(); got.AgentManager.Mode != ModeAuto {
		t.Errorf("Get() should fall back to defaults, got mode %q", got.AgentManager.Mode)
	}
}
