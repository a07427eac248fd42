package status

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/detect"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/team"
)

type fakeAgents map[string]*agent.Config

func (f fakeAgents) Resolve(id string) (*agent.Config, error) {
	if cfg, ok := f[id]; ok {
		return cfg, nil
	}
	return nil, errors.NewNotFoundError("agent", id).WithCause(errors.ErrAgentNotFound)
}

type fakeSessions struct {
	alive    map[string]bool
	states   map[string]detect.RuntimeState
	stateErr error
	queried  []string
}

func (f *fakeSessions) SessionName(cfg *agent.Config) string { return "agent-" + cfg.EmployeeID }

func (f *fakeSessions) Alive(_ context.Context, cfg *agent.Config) bool {
	return f.alive[cfg.EmployeeID]
}

func (f *fakeSessions) RuntimeState(_ context.Context, cfg *agent.Config) (detect.RuntimeState, error) {
	f.queried = append(f.queried, cfg.EmployeeID)
	if f.stateErr != nil {
		return detect.Unknown, f.stateErr
	}
	return f.states[cfg.EmployeeID], nil
}

func TestAggregator_Collect(t *testing.T) {
	agents := fakeAgents{
		"EMP_1": {EmployeeID: "EMP_1", Name: "ada", Enabled: true},
		"EMP_2": {EmployeeID: "EMP_2", Name: "grace", Enabled: true},
		"EMP_3": {EmployeeID: "EMP_3", Name: "linus", Enabled: false},
		"EMP_4": {EmployeeID: "EMP_4", Name: "ken", Enabled: true},
		"EMP_5": {EmployeeID: "EMP_5", Name: "rob", Enabled: true},
	}
	sessions := &fakeSessions{
		alive: map[string]bool{"EMP_1": true, "EMP_2": true, "EMP_3": true, "EMP_5": true},
		states: map[string]detect.RuntimeState{
			"EMP_1": {State: detect.StateBusy, ElapsedSeconds: 65, HasElapsed: true},
			"EMP_2": {State: detect.StateBlocked},
			"EMP_5": {State: detect.StateUnknown},
		},
	}
	cfg := &team.Config{
		Name:      "backend",
		Enabled:   true,
		LeadAgent: "EMP_1",
		Members: team.Members{
			{EmployeeID: "EMP_1", Role: "lead"},
			{EmployeeID: "EMP_2", Role: "member"},
			{EmployeeID: "EMP_3", Role: "member"},
			{EmployeeID: "EMP_4", Role: "reviewer"},
			{EmployeeID: "EMP_9", Role: "member"},
			{EmployeeID: "EMP_5", Role: "member"},
		},
	}

	report, err := NewAggregator(agents, sessions, nil).Collect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	want := []string{
		"✅ Running (busy 1m05s) EMP_1 (ada) - lead 👑",
		"✅ Running (blocked: approval/user input) EMP_2 (grace) - member",
		"⛔ Disabled EMP_3 (linus) - member",
		"⭕ Stopped EMP_4 (ken) - reviewer",
		"❔ Unknown EMP_9 (EMP_9) - member",
		"✅ Running EMP_5 (rob) - member",
	}
	if got := report.Lines(); !slices.Equal(got, want) {
		t.Errorf("Lines() =\n%q\nwant\n%q", got, want)
	}

	// Disabled agents are never polled, even when a session exists.
	if slices.Contains(sessions.queried, "EMP_3") {
		t.Error("disabled agent was polled")
	}
}

func TestAggregator_StateQueryFails(t *testing.T) {
	agents := fakeAgents{"EMP_1": {EmployeeID: "EMP_1", Name: "ada", Enabled: true}}
	sessions := &fakeSessions{
		alive:    map[string]bool{"EMP_1": true},
		stateErr: errors.New("capture failed"),
	}
	cfg := &team.Config{Name: "t", Enabled: true, Members: team.Members{{EmployeeID: "EMP_1", Role: "member"}}}

	report, err := NewAggregator(agents, sessions, nil).Collect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := report.Lines()[0]; got != "✅ Running EMP_1 (ada) - member" {
		t.Errorf("line = %q", got)
	}
}

func TestAggregator_DisabledTeam(t *testing.T) {
	cfg := &team.Config{Name: "web", Enabled: false, File: "/repo/teams/web.md"}
	_, err := NewAggregator(fakeAgents{}, &fakeSessions{}, nil).Collect(context.Background(), cfg)
	if !errors.Is(err, errors.ErrTeamDisabled) {
		t.Fatalf("Collect() error = %v, want ErrTeamDisabled", err)
	}
}

func TestSuffix(t *testing.T) {
	tests := []struct {
		name string
		rs   *detect.RuntimeState
		want string
	}{
		{"nil", nil, ""},
		{"busy no elapsed", &detect.RuntimeState{State: detect.StateBusy}, " (busy)"},
		{"busy seconds", &detect.RuntimeState{State: detect.StateBusy, ElapsedSeconds: 12, HasElapsed: true}, " (busy 12s)"},
		{"busy zero", &detect.RuntimeState{State: detect.StateBusy, HasElapsed: true}, " (busy 0s)"},
		{"stuck", &detect.RuntimeState{State: detect.StateStuck, ElapsedSeconds: 1200, HasElapsed: true}, " (stuck 20m00s)"},
		{"error with reason", &detect.RuntimeState{State: detect.StateError, Reason: "API Error: 529"}, " (error: API Error: 529)"},
		{"error", &detect.RuntimeState{State: detect.StateError}, " (error)"},
		{"idle", &detect.RuntimeState{State: detect.StateIdle}, " (idle)"},
		{"blocked", &detect.RuntimeState{State: detect.StateBlocked}, " (blocked: approval/user input)"},
		{"unknown", &detect.RuntimeState{State: detect.StateUnknown}, ""},
		{"unrecognized", &detect.RuntimeState{State: "sleeping"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suffix(tt.rs); got != tt.want {
				t.Errorf("Suffix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{
		0:    "0s",
		59:   "59s",
		60:   "1m00s",
		65:   "1m05s",
		3599: "59m59s",
		3600: "60m00s",
	}
	for secs, want := range tests {
		if got := FormatDuration(secs); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", secs, got, want)
		}
	}
}

func TestMemberStatus_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		ms   MemberStatus
		want map[string]any
		omit []string
	}{
		{
			name: "busy with elapsed",
			ms: MemberStatus{
				EmployeeID: "EMP_0001", Name: "ada", Role: "lead", IsLead: true, Kind: KindRunning,
				Runtime: &detect.RuntimeState{State: detect.StateBusy, ElapsedSeconds: 65, HasElapsed: true},
			},
			want: map[string]any{"status": "running", "state": "busy", "elapsed_seconds": float64(65)},
			omit: []string{"reason"},
		},
		{
			name: "error with reason",
			ms: MemberStatus{
				EmployeeID: "EMP_0002", Name: "grace", Role: "dev", Kind: KindRunning,
				Runtime: &detect.RuntimeState{State: detect.StateError, Reason: "API Error: 529 overloaded"},
			},
			want: map[string]any{"state": "error", "reason": "API Error: 529 overloaded"},
			omit: []string{"elapsed_seconds"},
		},
		{
			name: "zero elapsed is kept",
			ms: MemberStatus{
				EmployeeID: "EMP_0003", Kind: KindRunning,
				Runtime: &detect.RuntimeState{State: detect.StateBusy, HasElapsed: true},
			},
			want: map[string]any{"state": "busy", "elapsed_seconds": float64(0)},
		},
		{
			name: "stopped has no runtime fields",
			ms: MemberStatus{
				EmployeeID: "EMP_0004", Name: "linus", Role: "dev", Kind: KindStopped,
			},
			want: map[string]any{"employee_id": "EMP_0004", "status": "stopped"},
			omit: []string{"state", "elapsed_seconds", "reason"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ms)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v (json %s)", k, got[k], v, data)
				}
			}
			for _, k := range tt.omit {
				if _, ok := got[k]; ok {
					t.Errorf("%s present in %s", k, data)
				}
			}
		})
	}
}

func TestReport_MarshalJSON(t *testing.T) {
	r := Report{
		Team: "backend",
		File: "teams/backend.md",
		Members: []MemberStatus{{
			EmployeeID: "EMP_0001", Name: "ada", Role: "lead", IsLead: true, Kind: KindRunning,
			Runtime: &detect.RuntimeState{State: detect.StateIdle},
		}},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got struct {
		Members []map[string]any `json:"members"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got.Members) != 1 || got.Members[0]["state"] != "idle" {
		t.Errorf("members = %v, want one idle member", got.Members)
	}
}
