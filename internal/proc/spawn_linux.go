//go:build linux

package proc

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// ResetSignals restores default dispositions for every signal this process
// had handlers installed for. Called before the shutdown handler is armed so
// the managed child starts from a clean slate.
func ResetSignals() {
	signal.Reset()
}

// CloseInheritedFiles marks every open descriptor except the given ones
// close-on-exec, so the managed child inherits only the standard streams.
func CloseInheritedFiles(keep ...int) error {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return fmt.Errorf("enumerate open descriptors: %w", err)
	}
	for _, entry := range entries {
		fd, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		kept := false
		for _, k := range keep {
			if fd == k {
				kept = true
				break
			}
		}
		if kept {
			continue
		}
		unix.CloseOnExec(fd)
	}
	return nil
}

// Spawn forks and execs argv with the supervisor's standard streams attached.
// The returned handle is released immediately: exit-status collection for the
// primary child, like every other descendant, belongs to WaitForAllChildren.
func Spawn(argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("spawn: empty argv")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn %s: %w", filepath.Base(argv[0]), err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

// WaitForAllChildren blocks until the primary child and every other tracked
// descendant has been reaped, or until cancel is closed. A cancel-driven
// return is a spurious wake by design: the caller re-checks the shutdown
// state instead of assuming all children exited. It returns the number of
// children reaped and whether the primary child was among them.
func WaitForAllChildren(primary int, cancel <-chan struct{}) (int, bool) {
	sigchld := make(chan os.Signal, 16)
	signal.Notify(sigchld, unix.SIGCHLD)
	defer signal.Stop(sigchld)

	reaped := 0
	primaryExited := false
	for {
		for {
			var status unix.WaitStatus
			pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
			if err == unix.EINTR {
				continue
			}
			if err == unix.ECHILD {
				return reaped, primaryExited
			}
			if err != nil || pid == 0 {
				// Children remain but none are ready yet.
				break
			}
			reaped++
			if pid == primary {
				primaryExited = true
			}
		}
		select {
		case <-cancel:
			return reaped, primaryExited
		case <-sigchld:
		}
	}
}
