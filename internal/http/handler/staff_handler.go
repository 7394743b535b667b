package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StaffHandler struct {
	staffService *service.StaffService
	logger       *zap.Logger
}

func NewStaffHandler(staffService *service.StaffService, logger *zap.Logger) *StaffHandler {
	return &StaffHandler{
		staffService: staffService,
		logger:       logger,
	}
}

// @Summary List staff
// @Description List staff members
// @Tags Staff
// @Produce json
// @Param includeInactive query bool false "Include deactivated accounts"
// @Success 200 {array} domain.StaffDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /staff [get]
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("includeInactive"))

	staff, err := h.staffService.ListStaff(r.Context(), includeInactive)
	if err != nil {
		h.logger.Error("failed to list staff", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, staff)
}

// @Summary Create staff
// @Description Register a new staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param staff body domain.CreateStaffRequest true "Staff data"
// @Success 201 {object} domain.StaffDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /staff [post]
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	staff, err := h.staffService.CreateStaff(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create staff", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, staff)
}

// @Summary Get staff member
// @Description Get a staff member by ID
// @Tags Staff
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} domain.StaffDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /staff/{id} [get]
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	staff, err := h.staffService.GetStaff(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, staff)
}

// @Summary Update staff member
// @Description Update a staff member's profile, role or active flag
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path string true "Staff ID"
// @Param staff body domain.UpdateStaffRequest true "Staff data"
// @Success 200 {object} domain.StaffDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /staff/{id} [put]
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	var req domain.UpdateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	staff, err := h.staffService.UpdateStaff(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update staff", zap.String("id", id.String()), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, staff)
}
