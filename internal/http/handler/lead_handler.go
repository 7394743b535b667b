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

type LeadHandler struct {
	leadService *service.LeadService
	metrics     *middleware.Metrics
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, metrics *middleware.Metrics, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		metrics:     metrics,
		logger:      logger,
	}
}

// @Summary List leads
// @Description List leads with optional filters
// @Tags Leads
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param status query string false "Filter by status (new, contacted, qualified, pickup_scheduled, in_repair, completed, delivered, cancelled)"
// @Param deviceType query string false "Filter by device type"
// @Param source query string false "Filter by source"
// @Param assignedStaffId query string false "Filter by assigned staff ID"
// @Param createdAfter query string false "Created after date (YYYY-MM-DD)"
// @Param createdBefore query string false "Created before date (YYYY-MM-DD)"
// @Param hasInvoice query bool false "Filter by invoice link presence"
// @Param q query string false "Search customer name, phone, device or issue"
// @Param sort query string false "Sort by (created_desc, created_asc, updated_desc, quoted_desc, quoted_asc, follow_up_asc)"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.LeadFilters{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.LeadStatus(s)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filters.Status = &status
	}
	if d := r.URL.Query().Get("deviceType"); d != "" {
		deviceType := domain.DeviceType(d)
		filters.DeviceType = &deviceType
	}
	if src := r.URL.Query().Get("source"); src != "" {
		source := domain.LeadSource(src)
		filters.Source = &source
	}
	if sid := r.URL.Query().Get("assignedStaffId"); sid != "" {
		if id, err := uuid.Parse(sid); err == nil {
			filters.AssignedStaffID = &id
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
	if hi := r.URL.Query().Get("hasInvoice"); hi != "" {
		if b, err := strconv.ParseBool(hi); err == nil {
			filters.HasInvoice = &b
		}
	}
	if q := r.URL.Query().Get("q"); q != "" {
		filters.SearchQuery = &q
	}

	sortBy := repository.LeadSortOption(r.URL.Query().Get("sort"))

	result, err := h.leadService.ListLeads(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Create lead
// @Description Register a new repair inquiry
// @Tags Leads
// @Accept json
// @Produce json
// @Param lead body domain.CreateLeadRequest true "Lead data"
// @Success 201 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lead, err := h.leadService.CreateLead(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	h.metrics.RecordLeadCreated()
	respondJSON(w, http.StatusCreated, lead)
}

// @Summary Get lead
// @Description Get a lead with its remark history
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} domain.LeadDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	lead, remarks, err := h.leadService.GetLead(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lead":    lead,
		"remarks": remarks,
	})
}

// @Summary Update lead
// @Description Update a lead's contact and device fields
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param lead body domain.UpdateLeadRequest true "Lead data"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var req domain.UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lead, err := h.leadService.UpdateLead(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update lead", zap.String("id", id.String()), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// @Summary Add remark
// @Description Append a remark to a lead, optionally moving it to a new status.
// @Description If the remark saves but the status update fails, the response
// @Description carries leadUpdated=false and a warning instead of an error.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param remark body domain.AddRemarkRequest true "Remark data"
// @Success 201 {object} domain.AddRemarkResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/remarks [post]
func (h *LeadHandler) AddRemark(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var req domain.AddRemarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.leadService.AddRemark(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to add remark", zap.String("id", id.String()), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	h.metrics.RecordRemarkAdded()
	respondJSON(w, http.StatusCreated, result)
}

// @Summary Cancel lead
// @Description Cancel a lead from any non-terminal status
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param body body object false "Cancellation reason"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/cancel [post]
func (h *LeadHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	// Body is optional
	_ = json.NewDecoder(r.Body).Decode(&body)

	lead, err := h.leadService.CancelLead(r.Context(), id, body.Reason)
	if err != nil {
		h.logger.Error("failed to cancel lead", zap.String("id", id.String()), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// @Summary List due follow-ups
// @Description List open leads whose follow-up date has passed
// @Tags Leads
// @Produce json
// @Success 200 {array} domain.LeadDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/follow-ups [get]
func (h *LeadHandler) FollowUps(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadService.GetFollowUpsDue(r.Context())
	if err != nil {
		h.logger.Error("failed to list follow-ups", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, leads)
}
