package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot.
// Методы nil-safe: в тестах координатор живёт без метрик.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	SessionEvents  *prometheus.CounterVec
	TimerFirings   *prometheus.CounterVec
	GatewayErrors  *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of groups currently hosting a practice session.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Inbound chat events by kind.",
		}, []string{"kind"}),
		TimerFirings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_firings_total",
			Help:      "Lifecycle timer firings by purpose.",
		}, []string{"purpose"}),
		GatewayErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Messaging gateway errors by operation and reason.",
		}, []string{"op", "reason"}),
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) TimerFired(purpose string) {
	if m == nil {
		return
	}
	m.TimerFirings.WithLabelValues(purpose).Inc()
}

func (m *Metrics) GatewayError(op, reason string) {
	if m == nil {
		return
	}
	m.GatewayErrors.WithLabelValues(op, reason).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
