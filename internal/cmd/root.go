// Package cmd implements the teamctl command tree.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/teamctl/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "teamctl",
	Short: "Manage agent teams and assign them tasks",
	Long: `teamctl coordinates tmux-bound agents into named teams. Teams are
declared as markdown files with a front-matter block; a task assigned to a
team is briefed to its lead agent, which delegates to the members.

Examples:
  teamctl list                              List all teams
  teamctl show frontend                     Show team details (including workflow)
  teamctl status frontend                   Show team member status
  teamctl assign frontend <<EOF             Assign task to team (auto-starts Lead)
  Implement the feature
  EOF
  teamctl assign frontend --no-restore      Fail if Lead agent already running
  teamctl monitor frontend --follow         Monitor team output (live)
  teamctl create backend --lead EMP_0001 \
      --members EMP_0001 EMP_0002           Create new team (using employee IDs)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Interrupts cancel the command's context;
// monitor --follow treats that as a normal stop.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/teamctl/config.yaml)")
	rootCmd.PersistentFlags().String("repo-root", "", "repository root (default: discovered from REPO_ROOT, git or the working directory)")
	rootCmd.PersistentFlags().String("teams-dir", "", "teams directory (default: $TEAMS_DIR or <repo>/teams)")
	rootCmd.PersistentFlags().String("agents-dir", "", "agents directory (default: <repo>/agents)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("paths.repo_root", rootCmd.PersistentFlags().Lookup("repo-root"))
	_ = viper.BindPFlag("paths.teams_dir", rootCmd.PersistentFlags().Lookup("teams-dir"))
	_ = viper.BindPFlag("paths.agents_dir", rootCmd.PersistentFlags().Lookup("agents-dir"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/teamctl")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TEAMCTL")
	// e.g., TEAMCTL_AGENT_MANAGER_MODE for agent_manager.mode
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
