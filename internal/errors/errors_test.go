package errors

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Domain Error Tests
// -----------------------------------------------------------------------------

func TestTeamError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TeamError
		want string
	}{
		{
			name: "message only",
			err:  NewTeamError("bad front matter", nil),
			want: "team error: bad front matter",
		},
		{
			name: "with team and cause",
			err:  NewTeamError("bad front matter", ErrTeamInvalid).WithTeam("backend"),
			want: "team error [team=backend]: bad front matter: team configuration is invalid",
		},
		{
			name: "with team and file",
			err:  NewTeamError("unreadable", nil).WithTeam("web").WithFile("teams/web.md"),
			want: "team error [team=web, file=teams/web.md]: unreadable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTeamError_Is(t *testing.T) {
	err := NewTeamError("x", ErrTeamInvalid)

	if !errors.Is(err, &TeamError{}) {
		t.Error("errors.Is(err, &TeamError{}) = false, want true")
	}
	if !errors.Is(err, ErrTeamInvalid) {
		t.Error("errors.Is(err, ErrTeamInvalid) = false, want true")
	}
	if errors.Is(err, ErrAgentNotFound) {
		t.Error("errors.Is(err, ErrAgentNotFound) = true, want false")
	}
}

func TestAgentError_Error(t *testing.T) {
	err := NewAgentError("capture failed", ErrSessionNotRunning).
		WithEmployeeID("EMP_0001").
		WithSession("agent-emp-0001")

	want := "agent error [agent=EMP_0001, session=agent-emp-0001]: capture failed: agent session not running"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrSessionNotRunning) {
		t.Error("errors.Is(err, ErrSessionNotRunning) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("team", "frontend").
		WithCause(ErrTeamNotFound).
		WithAlternatives([]string{"backend", "qa"})

	if got, want := err.Error(), "team 'frontend' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrTeamNotFound) {
		t.Error("errors.Is(err, ErrTeamNotFound) = false, want true")
	}
	if !slices.Equal(err.Alternatives, []string{"backend", "qa"}) {
		t.Errorf("Alternatives = %v", err.Alternatives)
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestPreconditionError(t *testing.T) {
	err := NewPreconditionError("Task cannot be empty", ErrEmptyTask).
		WithHint("Provide task via stdin or --task-file")

	if got, want := err.Error(), "Task cannot be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrEmptyTask) {
		t.Error("errors.Is(err, ErrEmptyTask) = false, want true")
	}
	if !errors.Is(err, &PreconditionError{}) {
		t.Error("errors.Is(err, &PreconditionError{}) = false, want true")
	}
	if got := Hints(err); !slices.Equal(got, []string{"Provide task via stdin or --task-file"}) {
		t.Errorf("Hints() = %v", got)
	}
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("Lead agent 'EMP_0001' (dev) is already running", ErrSessionRunning).
		WithResource("agent-emp-0001").
		WithHint("To assign to the existing session, use --restore (default)")

	if err.Resource != "agent-emp-0001" {
		t.Errorf("Resource = %q", err.Resource)
	}
	if !errors.Is(err, ErrSessionRunning) {
		t.Error("errors.Is(err, ErrSessionRunning) = false, want true")
	}
	if len(Hints(err)) != 1 {
		t.Errorf("Hints() len = %d, want 1", len(Hints(err)))
	}
}

func TestCollaboratorError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CollaboratorError
		want string
	}{
		{
			name: "stderr wins",
			err: NewCollaboratorError("start", ErrStartFailed).
				WithMessage("Failed to start lead agent").
				WithStderr("boom\n"),
			want: "Failed to start lead agent: boom",
		},
		{
			name: "falls back to cause",
			err:  NewCollaboratorError("Failed to assign task", ErrDeliveryFailed),
			want: "Failed to assign task: message delivery failed",
		},
		{
			name: "headline only",
			err:  NewCollaboratorError("tmux", nil),
			want: "tmux",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPersistenceError(t *testing.T) {
	err := NewPersistenceError("/tmp/x.md", fmt.Errorf("disk full"))

	if !errors.Is(err, ErrPersistence) {
		t.Error("errors.Is(err, ErrPersistence) = false, want true")
	}
	if IsTerminal(err) {
		t.Error("IsTerminal(persistence) = true, want false")
	}
	if IsUserFacing(err) {
		t.Error("IsUserFacing(persistence) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"persistence is swallowed", NewPersistenceError("p", nil), 0},
		{"not found", NewNotFoundError("team", "x"), 1},
		{"precondition", NewPreconditionError("disabled", ErrTeamDisabled), 1},
		{"conflict", NewConflictError("running", ErrSessionRunning), 1},
		{"collaborator", NewCollaboratorError("start", ErrStartFailed), 1},
		{"wrapped plain", fmt.Errorf("ctx: %w", errors.New("x")), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHints_ThroughWrap(t *testing.T) {
	base := NewPreconditionError("Team 'web' is disabled", ErrTeamDisabled).
		WithHint("Config: teams/web.md").
		WithHint("To enable: Set 'enabled: true' in the team config")
	err := Wrapf(base, "assign %s", "web")

	got := Hints(err)
	if len(got) != 2 {
		t.Fatalf("Hints() = %v, want 2 entries", got)
	}
	if Hints(errors.New("plain")) != nil {
		t.Error("Hints(plain) should be nil")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
	err := Wrap(ErrNoLead, "assign backend")
	if got, want := err.Error(), "assign backend: team has no lead agent"; got != want {
		t.Errorf("Wrap() = %q, want %q", got, want)
	}
	if !Is(err, ErrNoLead) {
		t.Error("Is(wrapped, ErrNoLead) = false, want true")
	}
}
