package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/http/handler"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/fixpoint-as/repair-api/internal/service"
	"github.com/fixpoint-as/repair-api/tests/testutil"
	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createInvoiceHandler(db *gorm.DB) *handler.InvoiceHandler {
	logger := zap.NewNop()
	svc := service.NewInvoiceService(
		repository.NewInvoiceRepository(db),
		repository.NewInvoiceSequenceRepository(db),
		repository.NewLeadRepository(db),
		logger,
	)
	return handler.NewInvoiceHandler(svc, handlerMetrics, logger)
}

func invoiceRequestBody() domain.GenerateInvoiceRequest {
	return domain.GenerateInvoiceRequest{
		CustomerName: "Counter Sale",
		Items: []domain.InvoiceItemRequest{
			{Description: "Screen replacement", Quantity: 1, UnitPrice: 1200},
		},
		Subtotal:    1200,
		TotalAmount: 1200,
	}
}

func TestInvoiceHandler_Generate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createInvoiceHandler(db)

	t.Run("valid request returns 201 with numbered invoice", func(t *testing.T) {
		generated := promtestutil.ToFloat64(handlerMetrics.InvoicesGenerated)

		req := authedRequest(t, db, http.MethodPost, "/api/v1/invoices", invoiceRequestBody())
		rec := httptest.NewRecorder()
		h.Generate(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp domain.GenerateInvoiceResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "INV-00001", resp.Invoice.InvoiceNumber)
		assert.Equal(t, domain.PaymentStatusPending, resp.Invoice.PaymentStatus)
		assert.Equal(t, generated+1, promtestutil.ToFloat64(handlerMetrics.InvoicesGenerated))
	})

	t.Run("missing items return 400", func(t *testing.T) {
		body := invoiceRequestBody()
		body.Items = nil
		req := authedRequest(t, db, http.MethodPost, "/api/v1/invoices", body)
		rec := httptest.NewRecorder()
		h.Generate(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("second invoice for the same lead returns 409", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Single Invoice", domain.LeadStatusCompleted)

		body := invoiceRequestBody()
		body.LeadID = &lead.ID
		req := authedRequest(t, db, http.MethodPost, "/api/v1/invoices", body)
		rec := httptest.NewRecorder()
		h.Generate(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		body2 := invoiceRequestBody()
		body2.LeadID = &lead.ID
		req = authedRequest(t, db, http.MethodPost, "/api/v1/invoices", body2)
		rec = httptest.NewRecorder()
		h.Generate(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestInvoiceHandler_GetByNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createInvoiceHandler(db)

	req := authedRequest(t, db, http.MethodPost, "/api/v1/invoices", invoiceRequestBody())
	rec := httptest.NewRecorder()
	h.Generate(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("lowercase lookup finds the invoice", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodGet, "/api/v1/invoices/number/inv-00001", nil)
		req = withURLParam(req, "number", "inv-00001")
		rec := httptest.NewRecorder()
		h.GetByNumber(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var dto domain.InvoiceDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
		assert.Equal(t, "INV-00001", dto.InvoiceNumber)
	})

	t.Run("unknown number returns 404", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodGet, "/api/v1/invoices/number/INV-99999", nil)
		req = withURLParam(req, "number", "INV-99999")
		rec := httptest.NewRecorder()
		h.GetByNumber(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestInvoiceHandler_UpdatePayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createInvoiceHandler(db)

	generate := func(t *testing.T) uuid.UUID {
		req := authedRequest(t, db, http.MethodPost, "/api/v1/invoices", invoiceRequestBody())
		rec := httptest.NewRecorder()
		h.Generate(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp domain.GenerateInvoiceResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		return resp.Invoice.ID
	}

	patch := func(t *testing.T, id uuid.UUID, body domain.UpdatePaymentRequest) *httptest.ResponseRecorder {
		req := authedRequest(t, db, http.MethodPut,
			fmt.Sprintf("/api/v1/invoices/%s/payment", id), body)
		req = withURLParam(req, "id", id.String())
		rec := httptest.NewRecorder()
		h.UpdatePayment(rec, req)
		return rec
	}

	t.Run("marking paid returns 200 with paid_at set", func(t *testing.T) {
		id := generate(t)
		updated := promtestutil.ToFloat64(handlerMetrics.PaymentsUpdated.WithLabelValues("paid"))

		rec := patch(t, id, domain.UpdatePaymentRequest{
			PaymentStatus: domain.PaymentStatusPaid,
			PaymentMethod: domain.PaymentMethodCard,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var dto domain.InvoiceDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
		assert.Equal(t, domain.PaymentStatusPaid, dto.PaymentStatus)
		assert.Equal(t, domain.PaymentMethodCard, dto.PaymentMethod)
		assert.NotNil(t, dto.PaidAt)
		assert.Equal(t, updated+1, promtestutil.ToFloat64(handlerMetrics.PaymentsUpdated.WithLabelValues("paid")))
	})

	t.Run("refund before payment returns 400", func(t *testing.T) {
		id := generate(t)
		rec := patch(t, id, domain.UpdatePaymentRequest{PaymentStatus: domain.PaymentStatusRefunded})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown invoice returns 404", func(t *testing.T) {
		rec := patch(t, uuid.New(), domain.UpdatePaymentRequest{PaymentStatus: domain.PaymentStatusPaid})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
