// Package monitor prints the recent terminal output of a team's members,
// either once or continuously.
package monitor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/logging"
	"github.com/Iron-Ham/teamctl/internal/team"
)

// Defaults used when the corresponding option is not set.
const (
	DefaultLines    = 50
	DefaultInterval = 3 * time.Second
)

// StoppedMessage is printed by callers when a follow ends.
const StoppedMessage = "⏹  Monitoring stopped"

// Teams re-resolves a team after its file changes.
type Teams interface {
	Resolve(identifier string) (*team.Config, error)
}

// Agents resolves employee IDs.
type Agents interface {
	Resolve(employeeID string) (*agent.Config, error)
	DisplayName(employeeID string) string
}

// Sessions is the subset of the session manager the monitor reads.
type Sessions interface {
	Alive(ctx context.Context, cfg *agent.Config) bool
	Capture(ctx context.Context, cfg *agent.Config, lines int) (string, error)
}

// Monitor writes member output to a writer.
type Monitor struct {
	agents   Agents
	sessions Sessions
	out      io.Writer
	lines    int
	interval time.Duration
	teams    Teams
	style    func(string) string
	logger   *logging.Logger

	// watch is swapped in tests.
	watch func(path string, logger *logging.Logger) (<-chan struct{}, func(), error)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLines sets how many lines are captured per member.
func WithLines(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.lines = n
		}
	}
}

// WithInterval sets the pause between follow cycles.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithReload makes Follow watch the team file and re-resolve the team
// through teams when it changes.
func WithReload(teams Teams) Option {
	return func(m *Monitor) { m.teams = teams }
}

// WithHeaderStyle renders member header lines, e.g. with lipgloss.
func WithHeaderStyle(fn func(string) string) Option {
	return func(m *Monitor) { m.style = fn }
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// New returns a Monitor writing to out.
func New(agents Agents, sessions Sessions, out io.Writer, opts ...Option) *Monitor {
	m := &Monitor{
		agents:   agents,
		sessions: sessions,
		out:      out,
		lines:    DefaultLines,
		interval: DefaultInterval,
		style:    func(s string) string { return s },
		logger:   logging.NopLogger(),
		watch:    watchFile,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lines returns the number of lines captured per member.
func (m *Monitor) Lines() int { return m.lines }

// Snapshot prints every resolvable member's recent output once, in roster
// order. Members whose agent cannot be resolved are skipped.
func (m *Monitor) Snapshot(ctx context.Context, cfg *team.Config) error {
	fmt.Fprintf(m.out, "📺 %s team output (last %d lines):\n", cfg.Name, m.lines)
	fmt.Fprintln(m.out, strings.Repeat("=", 60))

	rule := strings.Repeat("─", 20)
	for _, member := range cfg.Members {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := memberID(member)
		name := m.agents.DisplayName(id)
		ac, err := m.agents.Resolve(id)
		if err != nil {
			m.logger.Debug("skipping unresolved member", "employee_id", id)
			continue
		}

		running := m.sessions.Alive(ctx, ac)
		state := "Stopped"
		if running {
			state = "Running"
		}
		fmt.Fprintf(m.out, "\n%s\n", m.style(fmt.Sprintf("%s %s (%s) (%s) %s", rule, id, name, state, rule)))

		if !running {
			fmt.Fprintln(m.out, "(not running)")
			continue
		}
		output, err := m.sessions.Capture(ctx, ac, m.lines)
		if err != nil {
			m.logger.Debug("capture failed", "employee_id", id, "error", err)
		}
		if strings.TrimSpace(output) == "" {
			fmt.Fprintln(m.out, "(no output)")
			continue
		}
		fmt.Fprintln(m.out, output)
	}
	return nil
}

// Follow polls the roster until ctx is canceled, printing a member's output
// only when it differs from what was last printed for that member. The
// roster is reloaded when the team file changes. Cancellation is not an
// error.
func (m *Monitor) Follow(ctx context.Context, cfg *team.Config) error {
	fmt.Fprintf(m.out, "📺 Following %s team output (Ctrl+C to stop)...\n\n", cfg.Name)

	log := m.logger.WithTeam(cfg.Name)
	var changed <-chan struct{}
	if m.teams != nil && cfg.File != "" {
		ch, stop, err := m.watch(cfg.File, log)
		if err != nil {
			log.Warn("cannot watch team file", "file", cfg.File, "error", err)
		} else {
			defer stop()
			changed = ch
		}
	}

	last := make(map[string]string)
	for {
		m.cycle(ctx, cfg, last)

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			cfg = m.reload(cfg, log)
		case <-time.After(m.interval):
		}
	}
}

func (m *Monitor) cycle(ctx context.Context, cfg *team.Config, last map[string]string) {
	rule := strings.Repeat("=", 20)
	for _, member := range cfg.Members {
		if ctx.Err() != nil {
			return
		}
		id := memberID(member)
		ac, err := m.agents.Resolve(id)
		if err != nil || !m.sessions.Alive(ctx, ac) {
			continue
		}
		output, err := m.sessions.Capture(ctx, ac, m.lines)
		if err != nil {
			m.logger.Debug("capture failed", "employee_id", id, "error", err)
			continue
		}

		name := m.agents.DisplayName(id)
		key := id + "_" + name
		if prev, seen := last[key]; seen && prev == output {
			continue
		}
		fmt.Fprintf(m.out, "\n%s\n", m.style(fmt.Sprintf("%s %s (%s) %s", rule, id, name, rule)))
		fmt.Fprintln(m.out, output)
		last[key] = output
	}
}

// reload re-resolves cfg, keeping the current roster when the file no
// longer parses or resolves.
func (m *Monitor) reload(cfg *team.Config, log *logging.Logger) *team.Config {
	identifier := cfg.Stem
	if identifier == "" {
		identifier = cfg.Name
	}
	next, err := m.teams.Resolve(identifier)
	if err != nil {
		log.Warn("team reload failed; keeping previous roster", "error", err)
		return cfg
	}
	fmt.Fprintf(m.out, "\n🔄 Reloaded %s roster (%d members)\n", next.Name, len(next.Members))
	log.Info("team roster reloaded", "members", len(next.Members))
	return next
}

func memberID(m team.Member) string {
	if m.EmployeeID == "" {
		return "unknown"
	}
	return m.EmployeeID
}
