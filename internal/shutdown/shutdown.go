// Package shutdown coordinates the supervisor's single running → shutting
// down transition. The flag is armed from the signal path, consulted by the
// supervision loop and usable as a cancellation token by blocking waits.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/DocMAX/gamescope/internal/metrics"
)

// terminatingSignals are the deliveries that request supervisor shutdown.
var terminatingSignals = []os.Signal{
	syscall.SIGHUP,
	syscall.SIGINT,
	syscall.SIGQUIT,
	syscall.SIGTERM,
}

// Flag is the process-wide shutdown state. It transitions from running to
// shutting down at most once and never resets.
type Flag struct {
	requested atomic.Bool
	once      sync.Once
	done      chan struct{}
}

// NewFlag constructs a Flag in the running state.
func NewFlag() *Flag {
	return &Flag{done: make(chan struct{})}
}

// Trigger marks shutdown as requested. It reports whether this call performed
// the transition; repeat calls are no-ops.
func (f *Flag) Trigger() bool {
	first := f.requested.CompareAndSwap(false, true)
	if first {
		f.once.Do(func() { close(f.done) })
	}
	return first
}

// Requested reports whether shutdown has been requested.
func (f *Flag) Requested() bool {
	return f.requested.Load()
}

// Done returns a channel that is closed on the first shutdown request.
func (f *Flag) Done() <-chan struct{} {
	return f.done
}

// Notify subscribes the terminating signals and arms flag on the first
// delivery. Only the first transition logs; repeated deliveries have no
// further effect. The returned function unsubscribes.
func Notify(flag *Flag, log logrus.FieldLogger) func() {
	ch := make(chan os.Signal, len(terminatingSignals))
	signal.Notify(ch, terminatingSignals...)
	go watch(ch, flag, log)
	return func() { signal.Stop(ch) }
}

func watch(ch <-chan os.Signal, flag *Flag, log logrus.FieldLogger) {
	for sig := range ch {
		metrics.IncrementShutdownSignals()
		if flag.Trigger() {
			log.WithField("signal", sig).Info("termination requested, killing children")
		}
	}
}
