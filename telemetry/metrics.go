// Package telemetry exposes Prometheus metrics for the gptbot service: the
// live session gauge, chat request counters and latency, and eviction
// totals. Metrics live in an injected registry so tests get full isolation.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the service records into.
type Metrics struct {
	registry *prometheus.Registry

	chatRequests    *prometheus.CounterVec
	requestDuration prometheus.Histogram
	sessionsEvicted prometheus.Counter
}

// New builds a Metrics set on a fresh registry. activeSessions is sampled on
// every scrape to report the live session gauge; pass the store's
// ActiveSessions method.
func New(activeSessions func() int) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gptbot_chat_requests_total",
			Help: "Chat requests handled, by HTTP status code.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gptbot_chat_request_duration_seconds",
			Help:    "End to end chat request latency including model generation.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gptbot_sessions_evicted_total",
			Help: "Sessions removed by the idle-eviction sweep.",
		}),
	}

	reg.MustRegister(
		m.chatRequests,
		m.requestDuration,
		m.sessionsEvicted,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "gptbot_sessions_active",
			Help: "Sessions currently resident in the store.",
		}, func() float64 { return float64(activeSessions()) }),
	)

	return m
}

// ObserveChatRequest records one completed chat request.
func (m *Metrics) ObserveChatRequest(status int, duration time.Duration) {
	m.chatRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	m.requestDuration.Observe(duration.Seconds())
}

// AddEvicted records sessions removed by a sweep. Wire it as the store's
// eviction hook.
func (m *Metrics) AddEvicted(n int) {
	m.sessionsEvicted.Add(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
