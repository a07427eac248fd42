package session

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/Iron-Ham/teamctl/internal/agent"
	"github.com/Iron-Ham/teamctl/internal/detect"
	"github.com/Iron-Ham/teamctl/internal/errors"
	"github.com/Iron-Ham/teamctl/internal/tmux"
)

type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	fail    map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	if stdin != nil {
		_, _ = io.ReadAll(stdin)
	}
	f.calls = append(f.calls, args)
	if f.fail[args[0]] {
		return nil, &tmux.CommandError{Args: args, Stderr: "no server running"}
	}
	return []byte(f.outputs[args[0]]), nil
}

func (f *fakeRunner) hasCalled(sub string) bool {
	for _, c := range f.calls {
		if c[0] == sub {
			return true
		}
	}
	return false
}

func newTestManager(r *fakeRunner, opts ...Option) *TmuxManager {
	return NewTmuxManager(tmux.NewWithRunner(r), detect.NewDetector(10*time.Minute), opts...)
}

var ada = &agent.Config{EmployeeID: "EMP_0001", Name: "ada", FileID: "EMP_0001", Launcher: "claude"}

func TestTmuxManager_SessionName(t *testing.T) {
	m := newTestManager(&fakeRunner{})
	if got := m.SessionName(ada); got != "agent-emp-0001" {
		t.Errorf("SessionName() = %q", got)
	}

	m = newTestManager(&fakeRunner{}, WithPrefix("team-"))
	if got := m.SessionName(ada); got != "team-emp-0001" {
		t.Errorf("SessionName() with prefix = %q", got)
	}

	if got := m.SessionName(&agent.Config{Name: "nobody"}); got != "" {
		t.Errorf("SessionName() without ID = %q, want empty", got)
	}
}

func TestTmuxManager_Alive(t *testing.T) {
	r := &fakeRunner{}
	m := newTestManager(r)
	if !m.Alive(context.Background(), ada) {
		t.Error("Alive() = false")
	}
	if !slices.Equal(r.calls[0], []string{"has-session", "-t", "=agent-emp-0001"}) {
		t.Errorf("args = %v", r.calls[0])
	}

	r.fail = map[string]bool{"has-session": true}
	if m.Alive(context.Background(), ada) {
		t.Error("Alive() = true when tmux fails")
	}

	calls := len(r.calls)
	if m.Alive(context.Background(), &agent.Config{Name: "nobody"}) {
		t.Error("Alive() = true without a session ID")
	}
	if len(r.calls) != calls {
		t.Error("tmux should not be asked about an agent without a session ID")
	}
}

func TestTmuxManager_RuntimeState(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"capture-pane": "✻ Thinking… (42s · esc to interrupt)\n",
	}}
	rs, err := newTestManager(r).RuntimeState(context.Background(), ada)
	if err != nil {
		t.Fatalf("RuntimeState() error = %v", err)
	}
	if rs.State != detect.StateBusy || rs.ElapsedSeconds != 42 {
		t.Errorf("RuntimeState() = %+v", rs)
	}
}

func TestTmuxManager_RuntimeStateCaptureFails(t *testing.T) {
	r := &fakeRunner{fail: map[string]bool{"capture-pane": true}}
	rs, err := newTestManager(r).RuntimeState(context.Background(), ada)
	if err == nil {
		t.Fatal("RuntimeState() should fail")
	}
	if rs.State != detect.StateUnknown {
		t.Errorf("State = %q, want unknown", rs.State)
	}
}

func TestTmuxManager_Deliver(t *testing.T) {
	r := &fakeRunner{}
	if err := newTestManager(r).Deliver(context.Background(), ada, "do the thing"); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if !r.hasCalled("load-buffer") || !r.hasCalled("paste-buffer") || !r.hasCalled("send-keys") {
		t.Errorf("calls = %v", r.calls)
	}
}

func TestTmuxManager_DeliverFails(t *testing.T) {
	r := &fakeRunner{fail: map[string]bool{"paste-buffer": true}}
	err := newTestManager(r).Deliver(context.Background(), ada, "do the thing")

	if !errors.Is(err, errors.ErrDeliveryFailed) {
		t.Fatalf("Deliver() error = %v, want ErrDeliveryFailed", err)
	}
	var collab *errors.CollaboratorError
	if !errors.As(err, &collab) || collab.Stderr != "no server running" {
		t.Errorf("error = %#v", err)
	}
	if r.hasCalled("send-keys") {
		t.Error("Enter should not be sent after a failed paste")
	}
}

func TestTmuxManager_StopNotRunning(t *testing.T) {
	r := &fakeRunner{fail: map[string]bool{"has-session": true}}
	if err := newTestManager(r).Stop(context.Background(), ada); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r.hasCalled("kill-session") {
		t.Error("kill-session called for a missing session")
	}
}
