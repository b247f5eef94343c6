package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	ticketMutations  *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	connectedClients prometheus.Gauge
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tickets_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_http_errors_total",
			Help: "Requests answered with an error body, by error code",
		}, []string{"method", "route", "code"}),
		ticketMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_mutations_total",
			Help: "Ticket create/update/delete operations",
		}, []string{"op", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_notifications_total",
			Help: "Ticket change broadcasts",
		}, []string{"event", "result"}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tickets_realtime_observers",
			Help: "Currently connected realtime observers",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.errors,
		m.ticketMutations,
		m.notifications,
		m.connectedClients,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

// RecordMutation counts a ticket mutation outcome.
func (m *Metrics) RecordMutation(op string, err error) {
	if m == nil {
		return
	}
	m.ticketMutations.WithLabelValues(op, outcome(err)).Inc()
}

// RecordNotification counts a broadcast attempt.
func (m *Metrics) RecordNotification(event string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(event, outcome(err)).Inc()
}

// ObserverConnected adjusts the connected observer gauge by delta.
func (m *Metrics) ObserverConnected(delta int) {
	if m == nil {
		return
	}
	m.connectedClients.Add(float64(delta))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
