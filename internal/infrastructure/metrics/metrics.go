package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "cdbot"
)

var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Total command invocations by outcome",
		},
		[]string{"command", "outcome"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "command_duration_seconds",
			Help:      "Command handler duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"command"},
	)

	CrashReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escalation",
			Name:      "crash_reports_total",
			Help:      "Crash reports built, by origin and delivery result",
		},
		[]string{"origin", "delivered"},
	)

	PaginationSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pagination",
			Name:      "sessions_active",
			Help:      "Interactive result browsers currently open",
		},
	)

	PaginationClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pagination",
			Name:      "sessions_closed_total",
			Help:      "Closed result browsers by reason",
		},
		[]string{"reason"},
	)

	WikipediaRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wikipedia",
			Name:      "requests_total",
			Help:      "Encyclopedia API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	WikipediaRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wikipedia",
			Name:      "request_duration_seconds",
			Help:      "Encyclopedia API latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	PrefixCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prefix_cache",
			Name:      "lookups_total",
			Help:      "Prefix cache lookups by result",
		},
		[]string{"result"},
	)
)

// Recorder adapts the collectors to the observer interfaces of the domain packages.
type Recorder struct{}

// CommandFinished records one dispatched command.
func (Recorder) CommandFinished(command, outcome string, elapsed time.Duration) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
	CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// CrashReported records one crash report.
func (Recorder) CrashReported(origin string, delivered bool) {
	CrashReportsTotal.WithLabelValues(origin, strconv.FormatBool(delivered)).Inc()
}

// SessionOpened records a browser entering interactive mode.
func (Recorder) SessionOpened() {
	PaginationSessionsActive.Inc()
}

// SessionClosed records a browser leaving interactive mode.
func (Recorder) SessionClosed(reason string) {
	PaginationSessionsActive.Dec()
	PaginationClosedTotal.WithLabelValues(reason).Inc()
}

// RecordWikipediaRequest records one encyclopedia call.
func RecordWikipediaRequest(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	WikipediaRequestsTotal.WithLabelValues(endpoint, label).Inc()
	WikipediaRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordPrefixLookup records a prefix cache hit or miss.
func RecordPrefixLookup(hit bool) {
	if hit {
		PrefixCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	PrefixCacheLookups.WithLabelValues("miss").Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
