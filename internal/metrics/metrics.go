package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, which keeps services usable without a registry.
type Metrics struct {
	publicViews     prometheus.Counter
	responses       *prometheus.CounterVec
	documentsSent   prometheus.Counter
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		publicViews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proposal",
			Name:      "public_views_total",
			Help:      "Total number of public document views served through an access token.",
		}),
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "proposal",
				Name:      "responses_total",
				Help:      "Recipient responses by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
		documentsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proposal",
			Name:      "documents_sent_total",
			Help:      "Total number of documents moved from draft to sent.",
		}),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "proposal",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration observed at the API layer.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "proposal",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled by the API.",
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.publicViews, m.responses, m.documentsSent, m.requestDuration, m.requestTotal)
	return m
}

func (m *Metrics) PublicView() {
	if m == nil {
		return
	}
	m.publicViews.Inc()
}

// Response records a recipient action ("accept", "reject", "comment") and its
// outcome ("ok" or an error code).
func (m *Metrics) Response(action, outcome string) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) DocumentSent() {
	if m == nil {
		return
	}
	m.documentsSent.Inc()
}

// Request records one HTTP request. route must be the route pattern.
func (m *Metrics) Request(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
}
