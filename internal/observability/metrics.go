package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpErrors     *prometheus.CounterVec
	feedbackSent   *prometheus.CounterVec
	limitBlocks    *prometheus.CounterVec
	moderation     *prometheus.CounterVec
	configSaves    *prometheus.CounterVec
	counterDegrade prometheus.Counter
}

// NewMetrics registers all collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "colaborador_portal"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		httpErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP responses rendered from errors, by error code",
		}, []string{"method", "path", "code"}),
		feedbackSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "sent_total",
			Help:      "Feedbacks created, by initial status",
		}, []string{"status"}),
		limitBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "limit_blocks_total",
			Help:      "Sends rejected by the daily or weekly limit",
		}, []string{"reason"}),
		moderation: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "moderation_total",
			Help:      "Manager moderation decisions",
		}, []string{"decision"}),
		configSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "saves_total",
			Help:      "Configuration writes, by scope",
		}, []string{"scope"}),
		counterDegrade: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "counter_degraded_total",
			Help:      "Sends checked without the atomic counter because it was unavailable",
		}),
	}
}

// RecordRequest observes a finished request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, path, code).Inc()
}

// RecordFeedbackSent counts a created feedback.
func (m *Metrics) RecordFeedbackSent(status string) {
	if m == nil {
		return
	}
	m.feedbackSent.WithLabelValues(status).Inc()
}

// RecordLimitBlock counts a send refused by a limit.
func (m *Metrics) RecordLimitBlock(reason string) {
	if m == nil {
		return
	}
	m.limitBlocks.WithLabelValues(reason).Inc()
}

// RecordModeration counts an approve or reject decision.
func (m *Metrics) RecordModeration(decision string) {
	if m == nil {
		return
	}
	m.moderation.WithLabelValues(decision).Inc()
}

// RecordConfigSave counts a global or team configuration write.
func (m *Metrics) RecordConfigSave(scope string) {
	if m == nil {
		return
	}
	m.configSaves.WithLabelValues(scope).Inc()
}

// RecordCounterDegraded counts a send checked without the atomic counter.
func (m *Metrics) RecordCounterDegraded() {
	if m == nil {
		return
	}
	m.counterDegrade.Inc()
}
