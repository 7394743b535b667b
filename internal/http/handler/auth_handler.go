package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	staffService *service.StaffService
	tokens       *auth.TokenManager
	logger       *zap.Logger
}

func NewAuthHandler(staffService *service.StaffService, tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		staffService: staffService,
		tokens:       tokens,
		logger:       logger,
	}
}

type tokenRequest struct {
	AuthID string `json:"authId" validate:"required"`
}

type tokenResponse struct {
	Token string          `json:"token"`
	Staff domain.StaffDTO `json:"staff"`
}

// @Summary Issue access token
// @Description Exchange a staff auth ID for a signed access token. Requires
// @Description the admin API key; intended for the identity proxy in front of
// @Description this service.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body tokenRequest true "Auth ID"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	staff, err := h.staffService.ResolveByAuthID(r.Context(), req.AuthID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := h.tokens.IssueToken(staff)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	dto := domain.StaffDTO{
		ID:          staff.ID,
		AuthID:      staff.AuthID,
		DisplayName: staff.DisplayName,
		Email:       staff.Email,
		Phone:       staff.Phone,
		Role:        staff.Role,
		IsActive:    staff.IsActive,
		CreatedAt:   staff.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, Staff: dto})
}

// @Summary Current staff member
// @Description Return the authenticated staff member with their capability
// @Description and navigation sets
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.MeResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	staffCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	staff, err := h.staffService.GetStaff(r.Context(), staffCtx.StaffID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.MeResponse{
		Staff:        *staff,
		Capabilities: domain.CapabilitiesForRole(staffCtx.Role),
		Navigation:   domain.NavigationForRole(staffCtx.Role),
	})
}
