package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	moduleRunning = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "launcher",
		Name:      "module_running",
		Help:      "Whether the module has a live entry in the supervisor (1=running, 0=absent).",
	}, []string{"module"})

	moduleStarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "launcher",
		Name:      "module_start_total",
		Help:      "Start attempts per module, labelled by outcome.",
	}, []string{"module", "outcome"})

	moduleStops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "launcher",
		Name:      "module_stop_total",
		Help:      "Stop attempts per module, labelled by outcome.",
	}, []string{"module", "outcome"})

	startLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "launcher",
		Name:      "module_start_seconds",
		Help:      "Wall-clock time spent in start per module.",
	}, []string{"module"})

	stopLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "launcher",
		Name:      "module_stop_seconds",
		Help:      "Wall-clock time spent terminating a module.",
		Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
	}, []string{"module"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "launcher",
		Name:      "build_info",
		Help:      "Build metadata for the running launcher binary.",
	}, []string{"go_version", "vcs_revision", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(moduleRunning, moduleStarts, moduleStops, startLatency, stopLatency, buildInfo)
}

// Registry returns the Prometheus registry containing all launcher metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetModuleRunning records whether a module is present in the table.
func SetModuleRunning(module string, running bool) {
	if module == "" {
		return
	}
	value := 0.0
	if running {
		value = 1.0
	}
	moduleRunning.WithLabelValues(module).Set(value)
}

// ObserveStart counts a start attempt and its latency.
func ObserveStart(module, outcome string, d time.Duration) {
	if module == "" {
		return
	}
	moduleStarts.WithLabelValues(module, outcome).Inc()
	startLatency.WithLabelValues(module).Observe(d.Seconds())
}

// ObserveStop counts a stop attempt and its latency.
func ObserveStop(module, outcome string, d time.Duration) {
	if module == "" {
		return
	}
	moduleStops.WithLabelValues(module, outcome).Inc()
	stopLatency.WithLabelValues(module).Observe(d.Seconds())
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs_revision": "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
