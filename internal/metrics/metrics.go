// Package metrics exposes the Prometheus collectors for the relay, the
// notifiers, the quote wizard and the dev server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "royaldiamond"

// Metrics implements usecase.Recorder.
type Metrics struct {
	relayRequests   *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	quoteSteps      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers every collector on reg. Passing a fresh registry keeps tests
// independent of the global one.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		relayRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relay_requests_total",
				Help:      "Chat relay requests by outcome",
			},
			[]string{"outcome"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Lead notifications by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		quoteSteps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quote_wizard_steps_total",
				Help:      "Quote wizard transitions by resulting step",
			},
			[]string{"step"},
		),
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Metrics) RelayRequest(outcome string) {
	m.relayRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Notification(channel, outcome string) {
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) QuoteStep(step string) {
	m.quoteSteps.WithLabelValues(step).Inc()
}

// ObserveHTTP records one served request. path should be the route template,
// not the raw URL.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
