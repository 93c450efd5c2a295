package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	spawnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gamescope_reaper",
		Name:      "spawns_total",
		Help:      "Total number of times the managed command was spawned.",
	})

	respawnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gamescope_reaper",
		Name:      "respawns_total",
		Help:      "Total number of respawns after the managed command exited.",
	})

	reapedChildren = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gamescope_reaper",
		Name:      "reaped_children_total",
		Help:      "Total number of child processes reaped by the supervisor.",
	})

	shutdownSignals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gamescope_reaper",
		Name:      "shutdown_signals_total",
		Help:      "Total number of terminating signals delivered to the supervisor.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gamescope_reaper",
		Name:      "build_info",
		Help:      "Build metadata for the running reaper binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(spawnsTotal, respawnsTotal, reapedChildren, shutdownSignals, buildInfo)
}

// Registry returns the Prometheus registry containing all reaper metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncrementSpawns records one spawn of the managed command.
func IncrementSpawns() {
	spawnsTotal.Inc()
}

// IncrementRespawns records one respawn of the managed command.
func IncrementRespawns() {
	respawnsTotal.Inc()
}

// AddChildrenReaped records n children reaped by the wait loop.
func AddChildrenReaped(n int) {
	if n <= 0 {
		return
	}
	reapedChildren.Add(float64(n))
}

// IncrementShutdownSignals records one terminating-signal delivery.
func IncrementShutdownSignals() {
	shutdownSignals.Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
