package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/teamctl/internal/config"
	"github.com/Iron-Ham/teamctl/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify teamctl configuration",
	Long: `View or modify teamctl configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  teamctl config set agent_manager.mode tmux
  teamctl config set monitor.lines 100
  teamctl config set tmux.session_prefix agent-

Run 'teamctl config init' for a commented file listing every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/teamctl/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// settableKeys maps each key accepted by `config set` to its value kind.
var settableKeys = map[string]string{
	"paths.repo_root":               "string",
	"paths.teams_dir":               "string",
	"paths.agents_dir":              "string",
	"paths.state_dir":               "string",
	"tmux.socket":                   "string",
	"tmux.session_prefix":           "string",
	"tmux.width":                    "int",
	"tmux.height":                   "int",
	"tmux.history_limit":            "int",
	"tmux.ready_timeout_seconds":    "int",
	"agent_manager.mode":            "string",
	"agent_manager.command":         "string",
	"agent_manager.timeout_seconds": "int",
	"monitor.lines":                 "int",
	"monitor.interval_ms":           "int",
	"status.stuck_after_seconds":    "int",
	"assign.lock":                   "bool",
	"logging.enabled":               "bool",
	"logging.level":                 "string",
	"logging.max_size_mb":           "int",
	"logging.max_backups":           "int",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "Config file: (none - using defaults)")
	}
	fmt.Fprintln(out)

	settings := viper.AllSettings()
	delete(settings, "config")
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	kind, ok := settableKeys[key]
	if !ok {
		keys := make([]string, 0, len(settableKeys))
		for k := range settableKeys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return errors.NewNotFoundError("configuration key", key).
			WithCause(errors.ErrInvalidInput).
			WithAlternatives(keys)
	}

	var typed any
	switch kind {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.NewPreconditionError(
				fmt.Sprintf("invalid value for %s: expected true or false", key), errors.ErrInvalidInput)
		}
		typed = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewPreconditionError(
				fmt.Sprintf("invalid value for %s: expected integer", key), errors.ErrInvalidInput)
		}
		typed = n
	default:
		typed = value
	}

	viper.Set(key, typed)
	if _, err := config.Load(); err != nil {
		return errors.NewPreconditionError(
			fmt.Sprintf("invalid value for %s: %v", key, err), errors.ErrInvalidInput)
	}

	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return errors.NewPersistenceError(configFile, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typed)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

const configTemplate = `# teamctl configuration

# Directory layout. Empty values are discovered from the repository root.
paths:
  # Repository root (default: $REPO_ROOT, the git toplevel, or the nearest
  # parent holding teams/ or agents/)
  repo_root: ""
  # Team definitions, one <team>.md per team (default: $TEAMS_DIR or <repo>/teams)
  teams_dir: ""
  # Agent definitions, one <EMP_ID>.md per agent (default: <repo>/agents)
  agents_dir: ""
  # Assignment records, locks and logs (default: <repo>/.claude/state)
  state_dir: ""

# Agent sessions
tmux:
  # tmux -L socket; empty uses the default server
  socket: ""
  # Prepended to an agent's session ID
  session_prefix: agent-
  width: 200
  height: 50
  history_limit: 10000
  # tmux mode: wait for a new agent's input prompt before pasting (0 skips)
  ready_timeout_seconds: 60

# Task delegation
agent_manager:
  # auto, cli, tmux or off
  mode: auto
  # Explicit agent-manager command line; empty searches the skill directories
  command: ""
  # Bound on each start/assign call; 0 waits however long it takes
  timeout_seconds: 0

monitor:
  # Captured lines per agent
  lines: 50
  # Delay between polls in follow mode
  interval_ms: 3000

status:
  # A busy agent becomes stuck after this long
  stuck_after_seconds: 900

assign:
  # Take a per-team lock while assigning
  lock: true

logging:
  enabled: true
  # debug, info, warn or error
  level: info
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return errors.NewAlreadyExistsError("config file", configFile).
			WithHint("Use 'teamctl config set' to modify values")
	}
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(configTemplate), 0o644); err != nil {
		return errors.NewPersistenceError(configFile, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize teamctl's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintln(out, "  2. $HOME/.config/teamctl/config.yaml")
	fmt.Fprintln(out, "  3. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: TEAMCTL_* (e.g., TEAMCTL_AGENT_MANAGER_MODE)")
	return nil
}
