//go:build integration

package tmux

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/teamctl/internal/testutil"
)

func TestClient_SessionLifecycle(t *testing.T) {
	testutil.SkipIfNoTmux(t)

	ctx := context.Background()
	socket := fmt.Sprintf("teamctl-test-%d", os.Getpid())
	c := New(socket)
	t.Cleanup(func() {
		_ = CommandContext(context.Background(), socket, "kill-server").Run()
	})

	name := "agent-emp_0001"
	err := c.NewSession(ctx, SessionSpec{
		Name:         name,
		Dir:          t.TempDir(),
		Width:        120,
		Height:       40,
		HistoryLimit: 500,
		Command:      "cat",
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if !c.HasSession(ctx, name) {
		t.Fatal("HasSession() = false after NewSession")
	}
	if c.HasSession(ctx, "agent-emp_000") {
		t.Error("HasSession() prefix-matched another session")
	}

	if err := c.SendText(ctx, name, "hello team"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		out, err := c.Capture(ctx, name, 50)
		if err == nil && strings.Contains(out, "hello team") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pasted text never appeared; last capture %q, err %v", out, err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := c.KillSession(ctx, name); err != nil {
		t.Fatalf("KillSession() error = %v", err)
	}
	if c.HasSession(ctx, name) {
		t.Error("HasSession() = true after KillSession")
	}
}
