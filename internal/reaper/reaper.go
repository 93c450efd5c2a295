// Package reaper implements the supervision loop: spawn the managed command,
// collect every descendant it leaves behind, optionally respawn it, and on
// the way out sweep the whole process subtree so nothing survives the
// supervisor's exit.
package reaper

import (
	"os"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/DocMAX/gamescope/internal/metrics"
	"github.com/DocMAX/gamescope/internal/proc"
	"github.com/DocMAX/gamescope/internal/proctree"
	"github.com/DocMAX/gamescope/internal/shutdown"
)

// Options configure a supervision run. Command is immutable after parse and
// reused verbatim on every respawn.
type Options struct {
	Label      string
	NewSession bool
	Respawn    bool
	Command    []string
}

// OS abstracts the process-control primitives the loop drives. Tests swap in
// fakes; production wiring uses the proc package.
type OS interface {
	ResetSignals()
	CloseInheritedFiles(keep ...int) error
	NewSession() error
	BecomeSubreaper() error
	SetDeathSignal(sig syscall.Signal) error
	Spawn(argv []string) (int, error)
	WaitForAllChildren(primary int, cancel <-chan struct{}) (int, bool)
}

type hostOS struct{}

func (hostOS) ResetSignals()                           { proc.ResetSignals() }
func (hostOS) CloseInheritedFiles(keep ...int) error   { return proc.CloseInheritedFiles(keep...) }
func (hostOS) NewSession() error                       { return proc.NewSession() }
func (hostOS) BecomeSubreaper() error                  { return proc.BecomeSubreaper() }
func (hostOS) SetDeathSignal(sig syscall.Signal) error { return proc.SetDeathSignal(sig) }
func (hostOS) Spawn(argv []string) (int, error)        { return proc.Spawn(argv) }
func (hostOS) WaitForAllChildren(primary int, cancel <-chan struct{}) (int, bool) {
	return proc.WaitForAllChildren(primary, cancel)
}

// Reaper owns subreaper registration, the spawn/wait/respawn loop and the
// final subtree sweep. A single goroutine runs the loop; the only
// cross-goroutine state is the shutdown flag.
type Reaper struct {
	opts Options
	flag *shutdown.Flag
	os   OS
	log  logrus.FieldLogger

	killTree func(rootPid int, sig syscall.Signal)
	notify   func(*shutdown.Flag, logrus.FieldLogger) func()
	getpid   func() int
}

// New constructs a Reaper wired to the host operating system.
func New(opts Options, log logrus.FieldLogger) *Reaper {
	killer := proctree.NewKiller(proctree.NewScanner())
	return &Reaper{
		opts:     opts,
		flag:     shutdown.NewFlag(),
		os:       hostOS{},
		log:      log,
		killTree: killer.KillTree,
		notify:   shutdown.Notify,
		getpid:   os.Getpid,
	}
}

// Flag exposes the shutdown state, read by the status endpoint.
func (r *Reaper) Flag() *shutdown.Flag {
	return r.flag
}

// Run executes the supervision loop and returns the process exit code:
// 0 when the last spawn succeeded, 1 when a spawn failed.
func (r *Reaper) Run() int {
	if len(r.opts.Command) == 0 {
		r.log.Error("no sub-command to supervise")
		return 1
	}

	r.setup()

	pid, err := r.os.Spawn(r.opts.Command)
	if err != nil {
		r.log.WithError(err).WithField("command", r.opts.Command[0]).
			Error("failed to create child process")
		return r.terminate(1)
	}
	metrics.IncrementSpawns()
	r.log.WithFields(logrus.Fields{"pid": pid, "command": r.opts.Command[0]}).
		Info("spawned primary child")

	reaped, _ := r.os.WaitForAllChildren(pid, r.flag.Done())
	metrics.AddChildrenReaped(reaped)

	for r.opts.Respawn && !r.flag.Requested() {
		r.log.WithField("command", r.opts.Command[0]).
			Info("process shut down, restarting")
		pid, err = r.os.Spawn(r.opts.Command)
		if err != nil {
			r.log.WithError(err).WithField("command", r.opts.Command[0]).
				Error("failed to respawn child process")
			return r.terminate(1)
		}
		metrics.IncrementSpawns()
		metrics.IncrementRespawns()
		reaped, _ = r.os.WaitForAllChildren(pid, r.flag.Done())
		metrics.AddChildrenReaped(reaped)
	}

	return r.terminate(0)
}

// setup performs pre-spawn hygiene in a fixed order: reset inherited signal
// dispositions first (the shutdown handler is installed after), scrub
// descriptors, detach the session when requested, then register the subreaper
// and parent-death signal. Setup degradations are logged but never fatal.
func (r *Reaper) setup() {
	r.os.ResetSignals()
	if err := r.os.CloseInheritedFiles(0, 1, 2); err != nil {
		r.log.WithError(err).Warn("unable to scrub inherited descriptors")
	}
	if r.opts.NewSession {
		if err := r.os.NewSession(); err != nil {
			r.log.WithError(err).Warn("unable to create new session")
		}
	}
	r.notify(r.flag, r.log)
	if err := r.os.BecomeSubreaper(); err != nil {
		r.log.WithError(err).Warn("unable to register as child subreaper")
	}
	if err := r.os.SetDeathSignal(syscall.SIGTERM); err != nil {
		r.log.WithError(err).Warn("unable to register parent death signal")
	}
}

// terminate drives the terminal state: arm the shutdown flag, signal the
// whole subtree rooted at this process (the supervisor itself last, where the
// delivery is absorbed by the installed handler) and hand back the exit code.
func (r *Reaper) terminate(code int) int {
	r.flag.Trigger()
	r.killTree(r.getpid(), syscall.SIGTERM)
	return code
}
