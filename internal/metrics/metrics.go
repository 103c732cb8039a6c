package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kioskpanel"

// Outcome labels for remote commands.
const (
	OutcomeSuccess        = "success"
	OutcomeExitError      = "exit_error"
	OutcomeTimeout        = "timeout"
	OutcomeTransportError = "transport_error"
)

// Registry holds every panel metric. It is private to the process so tests
// can read counters without touching the global default registry.
var Registry = prometheus.NewRegistry()

var (
	// RemoteCommandsTotal counts remote invocations by outcome.
	RemoteCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "commands_total",
			Help:      "Remote commands executed, by outcome.",
		},
		[]string{"outcome"},
	)

	RemoteCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "command_duration_seconds",
			Help:      "Wall time spent waiting for remote commands.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	// ActionsTotal counts panel actions (refresh, reboot, ...) by result.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Control actions performed, by action and result.",
		},
		[]string{"action", "result"},
	)

	// RemoteAlive is 1 when the last status poll reached the remote host.
	RemoteAlive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "alive",
			Help:      "Whether the last liveness probe succeeded (1) or not (0).",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RemoteCommandsTotal,
		RemoteCommandDuration,
		ActionsTotal,
		RemoteAlive,
		HTTPRequestsTotal,
		httpDuration,
	)
}

func ObserveRemoteCommand(outcome string, d time.Duration) {
	RemoteCommandsTotal.WithLabelValues(outcome).Inc()
	RemoteCommandDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func ObserveAction(action string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	ActionsTotal.WithLabelValues(action, result).Inc()
}

func SetRemoteAlive(alive bool) {
	if alive {
		RemoteAlive.Set(1)
		return
	}
	RemoteAlive.Set(0)
}

func ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
