//go:build linux

package proc

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// BecomeSubreaper registers this process as the reaping target for any
// descendant whose direct parent exits. Orphans re-parent here instead of to
// init, which is what keeps them visible to later process-table enumeration.
func BecomeSubreaper() error {
	return unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0)
}

// IsSubreaper reports whether subreaper registration is in effect.
func IsSubreaper() bool {
	var status int
	err := unix.Prctl(unix.PR_GET_CHILD_SUBREAPER, uintptr(unsafe.Pointer(&status)), 0, 0, 0)
	return err == nil && status == 1
}

// SetDeathSignal asks the kernel to deliver sig to this process when its own
// parent exits, so an external parent's death triggers cleanup without
// polling.
func SetDeathSignal(sig syscall.Signal) error {
	return unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(sig), 0, 0, 0)
}

// NewSession detaches the process into a new session, dropping the
// controlling terminal and process group.
func NewSession() error {
	_, err := unix.Setsid()
	return err
}
