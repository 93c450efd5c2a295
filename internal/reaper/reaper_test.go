package reaper

import (
	"errors"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/DocMAX/gamescope/internal/shutdown"
)

// fakeOS scripts spawn outcomes and triggers the shutdown flag after a fixed
// number of waits, standing in for signal delivery.
type fakeOS struct {
	spawnErrs []error
	spawned   [][]string
	waits     int

	flag          *shutdown.Flag
	triggerAtWait int

	setupCalls []string
}

func (f *fakeOS) ResetSignals() {
	f.setupCalls = append(f.setupCalls, "resetSignals")
}

func (f *fakeOS) CloseInheritedFiles(keep ...int) error {
	f.setupCalls = append(f.setupCalls, "closeFds")
	return nil
}

func (f *fakeOS) NewSession() error {
	f.setupCalls = append(f.setupCalls, "newSession")
	return nil
}

func (f *fakeOS) BecomeSubreaper() error {
	f.setupCalls = append(f.setupCalls, "subreaper")
	return nil
}

func (f *fakeOS) SetDeathSignal(sig syscall.Signal) error {
	f.setupCalls = append(f.setupCalls, "deathSignal")
	return nil
}

func (f *fakeOS) Spawn(argv []string) (int, error) {
	idx := len(f.spawned)
	f.spawned = append(f.spawned, append([]string(nil), argv...))
	if idx < len(f.spawnErrs) && f.spawnErrs[idx] != nil {
		return -1, f.spawnErrs[idx]
	}
	return 1000 + idx, nil
}

func (f *fakeOS) WaitForAllChildren(primary int, cancel <-chan struct{}) (int, bool) {
	f.waits++
	if f.triggerAtWait > 0 && f.waits >= f.triggerAtWait {
		f.flag.Trigger()
	}
	return 1, true
}

type killRecord struct {
	root int
	sig  syscall.Signal
	n    int
}

func newTestReaper(opts Options, fake *fakeOS) (*Reaper, *killRecord, *test.Hook) {
	logger, hook := test.NewNullLogger()
	rec := &killRecord{}
	r := &Reaper{
		opts: opts,
		flag: shutdown.NewFlag(),
		os:   fake,
		log:  logger,
		killTree: func(rootPid int, sig syscall.Signal) {
			rec.root = rootPid
			rec.sig = sig
			rec.n++
		},
		notify: func(*shutdown.Flag, logrus.FieldLogger) func() { return func() {} },
		getpid: func() int { return 4242 },
	}
	fake.flag = r.flag
	return r, rec, hook
}

func TestRunSpawnsOnceWithoutRespawn(t *testing.T) {
	fake := &fakeOS{}
	r, rec, _ := newTestReaper(Options{Command: []string{"sleep", "100"}}, fake)

	if code := r.Run(); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if len(fake.spawned) != 1 {
		t.Fatalf("expected exactly one spawn, got %d", len(fake.spawned))
	}
	if fake.waits != 1 {
		t.Fatalf("expected exactly one wait, got %d", fake.waits)
	}
	if rec.n != 1 || rec.root != 4242 || rec.sig != syscall.SIGTERM {
		t.Fatalf("expected one SIGTERM tree sweep rooted at own pid, got %+v", rec)
	}
	if !r.flag.Requested() {
		t.Fatal("expected shutdown flag armed in the terminal state")
	}
}

func TestRunRespawnsUntilShutdown(t *testing.T) {
	fake := &fakeOS{triggerAtWait: 3}
	r, rec, _ := newTestReaper(Options{Respawn: true, Command: []string{"game"}}, fake)

	if code := r.Run(); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if len(fake.spawned) != 3 {
		t.Fatalf("expected 3 spawns before shutdown, got %d", len(fake.spawned))
	}
	for _, argv := range fake.spawned {
		if len(argv) != 1 || argv[0] != "game" {
			t.Fatalf("expected the command reused verbatim on respawn, got %v", argv)
		}
	}
	if rec.n != 1 {
		t.Fatalf("expected exactly one tree sweep, got %d", rec.n)
	}
}

func TestRunInitialSpawnFailure(t *testing.T) {
	fake := &fakeOS{spawnErrs: []error{errors.New("exec format error")}}
	r, rec, hook := newTestReaper(Options{Command: []string{"broken"}}, fake)

	if code := r.Run(); code != 1 {
		t.Fatalf("expected exit code 1 on spawn failure, got %d", code)
	}
	if fake.waits != 0 {
		t.Fatal("must not wait for children after a failed spawn")
	}
	if rec.n != 1 || rec.root != 4242 {
		t.Fatalf("expected the tree sweep against own pid even without children, got %+v", rec)
	}
	if !r.flag.Requested() {
		t.Fatal("expected shutdown flag armed after spawn failure")
	}

	errored := false
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			errored = true
		}
	}
	if !errored {
		t.Fatal("expected spawn failure to be reported")
	}
}

func TestRunRespawnSpawnFailure(t *testing.T) {
	fake := &fakeOS{spawnErrs: []error{nil, errors.New("enomem")}}
	r, _, _ := newTestReaper(Options{Respawn: true, Command: []string{"game"}}, fake)

	if code := r.Run(); code != 1 {
		t.Fatalf("expected exit code 1 on respawn failure, got %d", code)
	}
	if len(fake.spawned) != 2 {
		t.Fatalf("expected 2 spawn attempts, got %d", len(fake.spawned))
	}
	if fake.waits != 1 {
		t.Fatalf("expected a single wait before the failed respawn, got %d", fake.waits)
	}
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	fake := &fakeOS{}
	r, rec, _ := newTestReaper(Options{}, fake)

	if code := r.Run(); code != 1 {
		t.Fatalf("expected exit code 1 for an empty command, got %d", code)
	}
	if len(fake.spawned) != 0 || rec.n != 0 {
		t.Fatal("must not spawn or sweep without a command")
	}
}

func TestSetupOrderAndSessionFlag(t *testing.T) {
	fake := &fakeOS{}
	r, _, _ := newTestReaper(Options{NewSession: true, Command: []string{"game"}}, fake)
	r.Run()

	want := []string{"resetSignals", "closeFds", "newSession", "subreaper", "deathSignal"}
	if len(fake.setupCalls) != len(want) {
		t.Fatalf("expected setup calls %v, got %v", want, fake.setupCalls)
	}
	for i := range want {
		if fake.setupCalls[i] != want[i] {
			t.Fatalf("expected setup calls %v, got %v", want, fake.setupCalls)
		}
	}

	fake = &fakeOS{}
	r, _, _ = newTestReaper(Options{Command: []string{"game"}}, fake)
	r.Run()
	for _, call := range fake.setupCalls {
		if call == "newSession" {
			t.Fatal("must not create a new session unless requested")
		}
	}
}
