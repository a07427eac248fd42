// Package dashboard is a live terminal view of a team's status report.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Iron-Ham/teamctl/internal/status"
)

// DefaultInterval is the delay between refreshes.
const DefaultInterval = 3 * time.Second

// RefreshFunc produces a fresh report.
type RefreshFunc func(ctx context.Context) (*status.Report, error)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	otherStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// reportMsg carries the result of one refresh.
type reportMsg struct {
	report *status.Report
	err    error
	at     time.Time
}

// tickMsg schedules the next refresh.
type tickMsg time.Time

// Model is the bubbletea model behind `teamctl dashboard`.
type Model struct {
	ctx      context.Context
	team     string
	refresh  RefreshFunc
	interval time.Duration
	spinner  spinner.Model

	report  *status.Report
	err     error
	updated time.Time
	loading bool
	width   int
}

// New returns a Model for team. A non-positive interval uses DefaultInterval.
func New(ctx context.Context, team string, refresh RefreshFunc, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		team:     team,
		refresh:  refresh,
		interval: interval,
		spinner:  s,
		loading:  true,
	}
}

// Init starts the spinner and the first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		report, err := m.refresh(m.ctx)
		return reportMsg{report: report, err: err, at: time.Now()}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetch()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case reportMsg:
		m.loading = false
		m.updated = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.report = msg.report
		}
		return m, m.tick()

	case tickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf("📊 Team Status: %s", m.team))
	if m.loading {
		title += " " + m.spinner.View()
	}
	b.WriteString(title + "\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("=", m.ruleWidth())) + "\n")

	if m.report != nil {
		for _, ms := range m.report.Members {
			line := status.FormatLine(ms)
			if m.width > 0 {
				line = ansi.Truncate(line, m.width, "…")
			}
			b.WriteString(memberStyle(ms.Kind).Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("❌ "+m.err.Error()) + "\n")
	}

	help := "r refresh • q quit"
	if !m.updated.IsZero() {
		help = fmt.Sprintf("updated %s • %s", m.updated.Format("15:04:05"), help)
	}
	b.WriteString("\n" + helpStyle.Render(help) + "\n")
	return b.String()
}

func (m Model) ruleWidth() int {
	if m.width > 0 && m.width < 60 {
		return m.width
	}
	return 60
}

func memberStyle(k status.Kind) lipgloss.Style {
	switch k {
	case status.KindRunning:
		return runningStyle
	case status.KindStopped:
		return stoppedStyle
	default:
		return otherStyle
	}
}

// Run shows the dashboard until the user quits or ctx is canceled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
