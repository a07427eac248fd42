// Package status reports the live condition of every member of a team.
//
// Nothing is cached: each Collect resolves every agent and asks tmux again.
// Problems with individual members are folded into that member's line and
// never fail the report.
package status

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/detect"
	"github.com/Iron-Ham/teamctl/internal/logging"
	"github.com/Iron-Ham/teamctl/internal/team"
)

// Kind is the coarse condition of a member.
type Kind string

const (
	KindUnknown  Kind = "unknown"
	KindDisabled Kind = "disabled"
	KindStopped  Kind = "stopped"
	KindRunning  Kind = "running"
)

// AgentResolver resolves employee IDs.
type AgentResolver interface {
	Resolve(employeeID string) (*agent.Config, error)
}

// Sessions answers liveness and runtime-state questions.
type Sessions interface {
	SessionName(cfg *agent.Config) string
	Alive(ctx context.Context, cfg *agent.Config) bool
	RuntimeState(ctx context.Context, cfg *agent.Config) (detect.RuntimeState, error)
}

// MemberStatus is one roster entry's observed condition.
type MemberStatus struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsLead     bool   `json:"is_lead"`
	Kind       Kind   `json:"status"`
	Session    string `json:"session,omitempty"`

	// Runtime is set only for running members whose state query succeeded.
	// It is encoded flat as state, elapsed_seconds and reason.
	Runtime *detect.RuntimeState `json:"-"`
}

// MarshalJSON adds the runtime state fields when Runtime is set.
func (m MemberStatus) MarshalJSON() ([]byte, error) {
	type plain MemberStatus
	out := struct {
		plain
		State          string `json:"state,omitempty"`
		ElapsedSeconds *int   `json:"elapsed_seconds,omitempty"`
		Reason         string `json:"reason,omitempty"`
	}{plain: plain(m)}

	if rs := m.Runtime; rs != nil {
		out.State = rs.State.String()
		if rs.HasElapsed {
			elapsed := rs.ElapsedSeconds
			out.ElapsedSeconds = &elapsed
		}
		out.Reason = rs.Reason
	}
	return json.Marshal(out)
}

// Report is the status of a whole team.
type Report struct {
	Team    string         `json:"team"`
	File    string         `json:"file"`
	Members []MemberStatus `json:"members"`
}

// Aggregator builds Reports.
type Aggregator struct {
	agents   AgentResolver
	sessions Sessions
	logger   *logging.Logger
}

// NewAggregator returns an Aggregator. logger may be nil.
func NewAggregator(agents AgentResolver, sessions Sessions, logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Aggregator{agents: agents, sessions: sessions, logger: logger}
}

// Collect reports every member of cfg in declared order. A disabled team is
// a precondition failure.
func (a *Aggregator) Collect(ctx context.Context, cfg *team.Config) (*Report, error) {
	if err := team.RequireEnabled(cfg); err != nil {
		return nil, err
	}

	report := &Report{Team: cfg.Name, File: cfg.File}
	for _, m := range cfg.Members {
		report.Members = append(report.Members, a.member(ctx, cfg, m))
	}
	return report, nil
}

func (a *Aggregator) member(ctx context.Context, cfg *team.Config, m team.Member) MemberStatus {
	id := m.EmployeeID
	if id == "" {
		id = "unknown"
	}
	ms := MemberStatus{
		EmployeeID: id,
		Name:       id,
		Role:       m.Role,
		IsLead:     cfg.IsLead(id),
		Kind:       KindUnknown,
	}

	ac, err := a.agents.Resolve(id)
	if err != nil {
		a.logger.Debug("member agent unresolved", "team", cfg.Name, "employee_id", id, "error", err)
		return ms
	}
	if ac.Name != "" {
		ms.Name = ac.Name
	}
	if !ac.Enabled {
		ms.Kind = KindDisabled
		return ms
	}

	ms.Session = a.sessions.SessionName(ac)
	if !a.sessions.Alive(ctx, ac) {
		ms.Kind = KindStopped
		return ms
	}

	ms.Kind = KindRunning
	rs, err := a.sessions.RuntimeState(ctx, ac)
	if err != nil {
		a.logger.Debug("runtime state query failed", "employee_id", id, "error", err)
		return ms
	}
	ms.Runtime = &rs
	return ms
}

// Lines renders the report body, one line per member.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		lines = append(lines, FormatLine(m))
	}
	return lines
}

// FormatLine renders one member, e.g.
// "✅ Running (busy 1m05s) EMP_0001 (ada) - lead 👑".
func FormatLine(m MemberStatus) string {
	lead := ""
	if m.IsLead {
		lead = " 👑"
	}
	tail := fmt.Sprintf("%s (%s) - %s%s", m.EmployeeID, m.Name, m.Role, lead)

	switch m.Kind {
	case KindDisabled:
		return "⛔ Disabled " + tail
	case KindStopped:
		return "⭕ Stopped " + tail
	case KindRunning:
		return "✅ Running" + Suffix(m.Runtime) + " " + tail
	default:
		return "❔ Unknown " + tail
	}
}

// Suffix renders the runtime-state annotation for a running member, or ""
// when nothing useful is known.
func Suffix(rs *detect.RuntimeState) string {
	if rs == nil {
		return ""
	}
	switch rs.State {
	case detect.StateBusy, detect.StateStuck:
		if rs.HasElapsed {
			return fmt.Sprintf(" (%s %s)", rs.State, FormatDuration(rs.ElapsedSeconds))
		}
		return fmt.Sprintf(" (%s)", rs.State)
	case detect.StateBlocked:
		return " (blocked: approval/user input)"
	case detect.StateError:
		if rs.Reason != "" {
			return " (error: " + rs.Reason + ")"
		}
		return " (error)"
	case detect.StateIdle:
		return " (idle)"
	default:
		return ""
	}
}

// FormatDuration renders seconds as "Ns" under a minute, else "{m}m{ss}s".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}
