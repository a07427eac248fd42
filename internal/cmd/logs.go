package cmd

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View teamctl debug logs",
	Long: `View and filter the structured debug log teamctl writes under the
state directory.

Examples:
  # Show the last 50 entries
  teamctl logs

  # Show everything logged for one team
  teamctl logs --team backend -n 0

  # Warnings and errors from the last hour
  teamctl logs --level warn --since 1h

  # Entries mentioning delivery, as JSON
  teamctl logs --grep delivered --json`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail  int
	logsLevel string
	logsSince time.Duration
	logsGrep  string
	logsTeam  string
	logsAgent string
	logsJSON  bool
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().DurationVar(&logsSince, "since", 0, "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Only entries whose message contains this text")
	logsCmd.Flags().StringVar(&logsTeam, "team", "", "Only entries for this team")
	logsCmd.Flags().StringVar(&logsAgent, "agent", "", "Only entries for this employee ID")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Output as JSON")
}

func runLogs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := logging.LogFilter{
		Team:            logsTeam,
		Agent:           logsAgent,
		MessageContains: logsGrep,
	}
	if logsLevel != "" {
		if !slices.Contains(logging.ValidLevels(), strings.ToUpper(logsLevel)) {
			return errors.NewPreconditionError(
				fmt.Sprintf("invalid log level %q", logsLevel), errors.ErrInvalidInput).
				WithHint("Valid levels: " + strings.Join(logging.ValidLevels(), ", "))
		}
		filter.Level = logging.ParseLevel(logsLevel)
	}
	if logsSince > 0 {
		filter.Since = time.Now().Add(-logsSince)
	}

	entries, err := logging.ReadLogs(a.layout.LogDir())
	if err != nil {
		return errors.NewPreconditionError(err.Error(), errors.ErrInvalidInput).
			WithHint("Logs are written when logging.enabled is true")
	}
	entries = logging.FilterLogs(entries, filter)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsJSON {
		return logging.WriteJSON(a.out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No matching log entries")
		return nil
	}
	return logging.WriteText(a.out, entries)
}
