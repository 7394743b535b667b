package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the API
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	LeadsCreated      prometheus.Counter
	RemarksAdded      prometheus.Counter
	InvoicesGenerated prometheus.Counter
	PaymentsUpdated   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000},
			},
			[]string{"method", "path"},
		),
		LeadsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of repair leads created",
		}),
		RemarksAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_remarks_added_total",
			Help: "Total number of remarks added to leads",
		}),
		InvoicesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "invoices_generated_total",
			Help: "Total number of invoices generated",
		}),
		PaymentsUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_payments_updated_total",
				Help: "Total number of invoice payment status updates",
			},
			[]string{"status"},
		),
	}
}

// Instrument records request count, latency and response size per route
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		// Route pattern rather than the raw path keeps cardinality bounded
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		status := strconv.Itoa(rw.statusCode)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.written))
	})
}

// RecordLeadCreated increments the leads created counter. Safe on a nil
// receiver so handlers can run without metrics wired.
func (m *Metrics) RecordLeadCreated() {
	if m == nil {
		return
	}
	m.LeadsCreated.Inc()
}

// RecordRemarkAdded increments the remarks added counter
func (m *Metrics) RecordRemarkAdded() {
	if m == nil {
		return
	}
	m.RemarksAdded.Inc()
}

// RecordInvoiceGenerated increments the invoices generated counter
func (m *Metrics) RecordInvoiceGenerated() {
	if m == nil {
		return
	}
	m.InvoicesGenerated.Inc()
}

// RecordPaymentUpdated increments the payment updates counter by status
func (m *Metrics) RecordPaymentUpdated(status string) {
	if m == nil {
		return
	}
	m.PaymentsUpdated.WithLabelValues(status).Inc()
}
