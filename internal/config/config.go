package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete teamctl configuration
type Config struct {
	Paths        PathsConfig        `mapstructure:"paths"`
	Tmux         TmuxConfig         `mapstructure:"tmux"`
	AgentManager AgentManagerConfig `mapstructure:"agent_manager"`
	Monitor      MonitorConfig      `mapstructure:"monitor"`
	Status       StatusConfig       `mapstructure:"status"`
	Assign       AssignConfig       `mapstructure:"assign"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// PathsConfig overrides the directory layout discovered from the repo root.
// Empty values fall back to the conventional locations.
type PathsConfig struct {
	// RepoRoot pins the repository root. When empty, REPO_ROOT, git and a
	// directory walk are consulted in that order.
	RepoRoot string `mapstructure:"repo_root"`
	// TeamsDir holds one <team>.md file per team (default: <repo>/teams,
	// or $TEAMS_DIR when set).
	TeamsDir string `mapstructure:"teams_dir"`
	// AgentsDir holds one <EMP_ID>.md file per agent (default: <repo>/agents).
	AgentsDir string `mapstructure:"agents_dir"`
	// StateDir holds assignment records, team locks and logs
	// (default: <repo>/.claude/state).
	StateDir string `mapstructure:"state_dir"`
}

// TmuxConfig controls how agent sessions are addressed and created
type TmuxConfig struct {
	// Socket is passed as tmux -L. Empty uses the default server, which is
	// where agent-manager creates its sessions.
	Socket string `mapstructure:"socket"`
	// SessionPrefix is prepended to the agent session ID (default: "agent-")
	SessionPrefix string `mapstructure:"session_prefix"`
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	HistoryLimit  int    `mapstructure:"history_limit"`
	// ReadyTimeoutSeconds bounds the wait, in tmux mode, for a newly started
	// agent to reach its input prompt before the task is pasted (default:
	// 60, 0 skips the wait)
	ReadyTimeoutSeconds int `mapstructure:"ready_timeout_seconds"`
}

// AgentManagerConfig selects the task-delegation mechanism
type AgentManagerConfig struct {
	// Mode is one of "auto", "cli", "tmux", "off".
	//   auto: use the agent-manager CLI when it can be located, else degrade
	//   cli:  require the agent-manager CLI
	//   tmux: start and deliver through tmux directly
	//   off:  always take the degraded path
	Mode string `mapstructure:"mode"`
	// Command is an explicit agent-manager command line, e.g.
	// "python3 ~/.claude/skills/agent-manager/scripts/main.py".
	Command string `mapstructure:"command"`
	// TimeoutSeconds bounds each start/assign call. The default 0 waits for
	// the call however long it takes; a timed-out start may still have
	// launched the agent.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// MonitorConfig controls the monitor command
type MonitorConfig struct {
	// Lines is the number of captured lines per agent (default: 50)
	Lines int `mapstructure:"lines"`
	// IntervalMs is the follow-mode delay between polls (default: 3000)
	IntervalMs int `mapstructure:"interval_ms"`
}

// StatusConfig controls runtime-state inference
type StatusConfig struct {
	// StuckAfterSeconds turns busy into stuck once the reported elapsed
	// time passes this threshold (default: 900)
	StuckAfterSeconds int `mapstructure:"stuck_after_seconds"`
}

// AssignConfig controls the assign command
type AssignConfig struct {
	// Lock takes an advisory per-team lock around the liveness decision
	// and delivery (default: true)
	Lock bool `mapstructure:"lock"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is written (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Agent-manager modes
const (
	ModeAuto = "auto"
	ModeCLI  = "cli"
	ModeTmux = "tmux"
	ModeOff  = "off"
)

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Tmux: TmuxConfig{
			SessionPrefix: "agent-",
			Width:         200,
			Height:        50,
			HistoryLimit:  10000,

			ReadyTimeoutSeconds: 60,
		},
		AgentManager: AgentManagerConfig{
			Mode:           ModeAuto,
			TimeoutSeconds: 0,
		},
		Monitor: MonitorConfig{
			Lines:      50,
			IntervalMs: 3000,
		},
		Status: StatusConfig{
			StuckAfterSeconds: 900,
		},
		Assign: AssignConfig{
			Lock: true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Interval returns the follow-mode poll interval as a Duration
func (c *MonitorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// StuckAfter returns the busy-to-stuck threshold as a Duration
func (c *StatusConfig) StuckAfter() time.Duration {
	return time.Duration(c.StuckAfterSeconds) * time.Second
}

// ReadyTimeout returns the tmux-mode readiness wait as a Duration
func (c *TmuxConfig) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutSeconds) * time.Second
}

// Timeout returns the per-call agent-manager timeout as a Duration
func (c *AgentManagerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Paths defaults
	viper.SetDefault("paths.repo_root", defaults.Paths.RepoRoot)
	viper.SetDefault("paths.teams_dir", defaults.Paths.TeamsDir)
	viper.SetDefault("paths.agents_dir", defaults.Paths.AgentsDir)
	viper.SetDefault("paths.state_dir", defaults.Paths.StateDir)

	// Tmux defaults
	viper.SetDefault("tmux.socket", defaults.Tmux.Socket)
	viper.SetDefault("tmux.session_prefix", defaults.Tmux.SessionPrefix)
	viper.SetDefault("tmux.width", defaults.Tmux.Width)
	viper.SetDefault("tmux.height", defaults.Tmux.Height)
	viper.SetDefault("tmux.history_limit", defaults.Tmux.HistoryLimit)
	viper.SetDefault("tmux.ready_timeout_seconds", defaults.Tmux.ReadyTimeoutSeconds)

	// Agent-manager defaults
	viper.SetDefault("agent_manager.mode", defaults.AgentManager.Mode)
	viper.SetDefault("agent_manager.command", defaults.AgentManager.Command)
	viper.SetDefault("agent_manager.timeout_seconds", defaults.AgentManager.TimeoutSeconds)

	// Monitor defaults
	viper.SetDefault("monitor.lines", defaults.Monitor.Lines)
	viper.SetDefault("monitor.interval_ms", defaults.Monitor.IntervalMs)

	// Status defaults
	viper.SetDefault("status.stuck_after_seconds", defaults.Status.StuckAfterSeconds)

	// Assign defaults
	viper.SetDefault("assign.lock", defaults.Assign.Lock)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded configuration does not unmarshal or validate
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "teamctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".teamctl"
	}
	return filepath.Join(home, ".config", "teamctl")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ValidModes returns the list of valid agent_manager.mode values
func ValidModes() []string {
	return []string{ModeAuto, ModeCLI, ModeTmux, ModeOff}
}
