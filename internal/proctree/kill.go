package proctree

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// KillFunc delivers a signal to a single process.
type KillFunc func(pid int, sig syscall.Signal) error

// Killer sweeps a process subtree with a signal.
type Killer struct {
	scanner *Scanner
	kill    KillFunc
}

// NewKiller constructs a Killer that signals real processes via the scanner's
// view of the process table.
func NewKiller(scanner *Scanner) *Killer {
	return &Killer{
		scanner: scanner,
		kill: func(pid int, sig syscall.Signal) error {
			return unix.Kill(pid, sig)
		},
	}
}

// KillTree delivers sig to every live descendant of rootPid and then to
// rootPid itself, last. Delivery failures are ignored: a target exiting
// between enumeration and signaling is an expected race and must not abort
// the remaining deliveries. Descendant ordering carries no guarantee, since
// children may independently reap their own children before the sweep
// reaches them.
func (k *Killer) KillTree(rootPid int, sig syscall.Signal) {
	for _, pid := range k.scanner.Descendants(rootPid) {
		_ = k.kill(pid, sig)
	}
	_ = k.kill(rootPid, sig)
}
