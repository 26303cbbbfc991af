// Package metrics exposes Prometheus collectors for the expense store, the
// assistant and the HTTP server.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finassist"

type Metrics struct {
	registry *prometheus.Registry

	expenseOps      *prometheus.CounterVec
	expensesStored  prometheus.Gauge
	chatReplies     *prometheus.CounterVec
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	securityEvents  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		expenseOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expense_operations_total",
				Help:      "Committed expense mutations, partitioned by operation.",
			},
			[]string{"operation"},
		),
		expensesStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "expenses_stored",
			Help:      "Number of expenses currently in the collection.",
		}),
		chatReplies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_replies_total",
				Help:      "Assistant replies, partitioned by the rule that answered.",
			},
			[]string{"rule"},
		),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "How many HTTP requests processed, partitioned by status code, HTTP method and route.",
			},
			[]string{"code", "method", "route"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "The HTTP request latencies in seconds.",
			},
			[]string{"code", "method", "route"},
		),
		securityEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "security_events_total",
				Help:      "Rate-limited and suspicious requests, partitioned by kind.",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.expenseOps,
		m.expensesStored,
		m.chatReplies,
		m.requestCount,
		m.requestDuration,
		m.securityEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("could not register %v with Prometheus: %w", c, err)
		}
	}
	return m, nil
}

// Registry is exposed for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ExpenseChanged records a committed store mutation. Its signature matches
// the store's change observer.
func (m *Metrics) ExpenseChanged(op string, count int) {
	m.expenseOps.WithLabelValues(op).Inc()
	m.expensesStored.Set(float64(count))
}

// SetExpenseCount sets the stored-expenses gauge, e.g. after loading.
func (m *Metrics) SetExpenseCount(count int) {
	m.expensesStored.Set(float64(count))
}

// ChatReplied counts an assistant reply.
func (m *Metrics) ChatReplied(rule string) {
	m.chatReplies.WithLabelValues(rule).Inc()
}

// SecurityEvent counts a rejected or suspicious request.
func (m *Metrics) SecurityEvent(kind string) {
	m.securityEvents.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument wraps next so each request is counted under route, the mux
// pattern it was registered with. Using the pattern instead of the URL keeps
// label cardinality bounded.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.status)
		m.requestDuration.WithLabelValues(code, r.Method, route).Observe(time.Since(start).Seconds())
		m.requestCount.WithLabelValues(code, r.Method, route).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
