//go:build linux

package proc

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestSpawnAndWaitForAllChildren(t *testing.T) {
	pid, err := Spawn([]string{"sh", "-c", "exit 0"})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("expected positive pid, got %d", pid)
	}

	reaped, primaryExited := WaitForAllChildren(pid, make(chan struct{}))
	if reaped < 1 {
		t.Fatalf("expected at least one reaped child, got %d", reaped)
	}
	if !primaryExited {
		t.Fatal("expected the primary child to be reaped")
	}
}

func TestSpawnFailure(t *testing.T) {
	if _, err := Spawn([]string{"/nonexistent/gamescope-reaper-test-binary"}); err == nil {
		t.Fatal("expected spawn of a missing binary to fail")
	}
	if _, err := Spawn(nil); err == nil {
		t.Fatal("expected spawn of an empty argv to fail")
	}
}

func TestWaitForAllChildrenReturnsOnCancel(t *testing.T) {
	pid, err := Spawn([]string{"sleep", "30"})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer func() {
		_ = unix.Kill(pid, unix.SIGKILL)
		WaitForAllChildren(pid, make(chan struct{}))
	}()

	cancel := make(chan struct{})
	close(cancel)
	_, primaryExited := WaitForAllChildren(pid, cancel)
	if primaryExited {
		t.Fatal("expected early return while the primary child is still running")
	}
}
