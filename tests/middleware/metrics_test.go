package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fixpoint-as/repair-api/internal/http/middleware"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// NewMetrics registers against the default registry, so it runs once
	// for the whole test
	m := middleware.NewMetrics()

	t.Run("business counters increment", func(t *testing.T) {
		m.RecordLeadCreated()
		m.RecordLeadCreated()
		m.RecordRemarkAdded()
		m.RecordInvoiceGenerated()
		m.RecordPaymentUpdated("paid")
		m.RecordPaymentUpdated("paid")
		m.RecordPaymentUpdated("refunded")

		assert.Equal(t, float64(2), promtestutil.ToFloat64(m.LeadsCreated))
		assert.Equal(t, float64(1), promtestutil.ToFloat64(m.RemarksAdded))
		assert.Equal(t, float64(1), promtestutil.ToFloat64(m.InvoicesGenerated))
		assert.Equal(t, float64(2), promtestutil.ToFloat64(m.PaymentsUpdated.WithLabelValues("paid")))
		assert.Equal(t, float64(1), promtestutil.ToFloat64(m.PaymentsUpdated.WithLabelValues("refunded")))
	})

	t.Run("instrument records request counts per route and status", func(t *testing.T) {
		handler := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/leads", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, float64(1),
			promtestutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/leads", "418")))
	})

	t.Run("record methods are no-ops without metrics wired", func(t *testing.T) {
		var none *middleware.Metrics
		none.RecordLeadCreated()
		none.RecordRemarkAdded()
		none.RecordInvoiceGenerated()
		none.RecordPaymentUpdated("paid")
	})
}
