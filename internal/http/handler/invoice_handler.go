package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/http/middleware"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/fixpoint-as/repair-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	metrics        *middleware.Metrics
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService *service.InvoiceService, metrics *middleware.Metrics, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		metrics:        metrics,
		logger:         logger,
	}
}

// @Summary List invoices
// @Description List invoices with optional filters
// @Tags Invoices
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param paymentStatus query string false "Filter by payment status (pending, partial, paid, refunded)"
// @Param leadId query string false "Filter by lead ID"
// @Param createdAfter query string false "Created after date (YYYY-MM-DD)"
// @Param createdBefore query string false "Created before date (YYYY-MM-DD)"
// @Param q query string false "Search invoice number, customer name or phone"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.InvoiceFilters{}

	if ps := r.URL.Query().Get("paymentStatus"); ps != "" {
		status := domain.PaymentStatus(ps)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid payment status filter")
			return
		}
		filters.PaymentStatus = &status
	}
	if lid := r.URL.Query().Get("leadId"); lid != "" {
		if id, err := uuid.Parse(lid); err == nil {
			filters.LeadID = &id
		}
	}
	if ca := r.URL.Query().Get("createdAfter"); ca != "" {
		if t, err := time.Parse("2006-01-02", ca); err == nil {
			filters.CreatedAfter = &t
		}
	}
	if cb := r.URL.Query().Get("createdBefore"); cb != "" {
		if t, err := time.Parse("2006-01-02", cb); err == nil {
			filters.CreatedBefore = &t
		}
	}
	if q := r.URL.Query().Get("q"); q != "" {
		filters.SearchQuery = &q
	}

	result, err := h.invoiceService.ListInvoices(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list invoices", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Generate invoice
// @Description Generate an invoice with the next sequential number, optionally
// @Description from a lead. If the lead back-link fails, the invoice stands and
// @Description the response carries a warning.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice body domain.GenerateInvoiceRequest true "Invoice data"
// @Success 201 {object} domain.GenerateInvoiceResponse
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.invoiceService.Generate(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to generate invoice", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	h.metrics.RecordInvoiceGenerated()
	respondJSON(w, http.StatusCreated, result)
}

// @Summary Get invoice
// @Description Get an invoice by ID
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// @Summary Get invoice by number
// @Description Get an invoice by its human-facing number (e.g. INV-00042)
// @Tags Invoices
// @Produce json
// @Param number path string true "Invoice number"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/number/{number} [get]
func (h *InvoiceHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		respondWithError(w, http.StatusBadRequest, "invoice number required")
		return
	}

	invoice, err := h.invoiceService.GetByNumber(r.Context(), number)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// @Summary Update payment status
// @Description Change the payment status of an invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payment body domain.UpdatePaymentRequest true "Payment data"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/payment [put]
func (h *InvoiceHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	var req domain.UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	invoice, err := h.invoiceService.UpdatePayment(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update payment", zap.String("id", id.String()), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	h.metrics.RecordPaymentUpdated(string(invoice.PaymentStatus))
	respondJSON(w, http.StatusOK, invoice)
}
