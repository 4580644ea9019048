// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the domain-event side of metrics, used by the services
type Recorder interface {
	RecordRegistration()
	RecordLogin(success bool)
	RecordExpenseCreated(amount float64)
}

// Collector is the Prometheus implementation of Recorder plus HTTP metrics
type Collector struct {
	registrations   prometheus.Counter
	logins          *prometheus.CounterVec
	expensesCreated prometheus.Counter
	expenseAmount   prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expense_tracker_registrations_total",
			Help: "Number of successful user registrations.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_tracker_logins_total",
			Help: "Number of login attempts by result.",
		}, []string{"result"}),
		expensesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expense_tracker_expenses_created_total",
			Help: "Number of expenses recorded.",
		}),
		expenseAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expense_tracker_expense_amount_total",
			Help: "Sum of recorded expense amounts.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_tracker_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "expense_tracker_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.expensesCreated,
		c.expenseAmount,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordExpenseCreated counts the expense. Negative amounts are not added to
// the amount counter since Prometheus counters cannot decrease.
func (c *Collector) RecordExpenseCreated(amount float64) {
	c.expensesCreated.Inc()
	if amount > 0 {
		c.expenseAmount.Add(amount)
	}
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every event
type Nop struct{}

func (Nop) RecordRegistration()          {}
func (Nop) RecordLogin(bool)             {}
func (Nop) RecordExpenseCreated(float64) {}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
