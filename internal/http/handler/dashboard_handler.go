package handler

import (
	"net/http"
	"strconv"

	"github.com/fixpoint-as/repair-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	metricsService *service.MetricsService
	logger         *zap.Logger
}

func NewDashboardHandler(metricsService *service.MetricsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		metricsService: metricsService,
		logger:         logger,
	}
}

// @Summary Dashboard metrics
// @Description Aggregated lead, conversion and revenue metrics over a rolling
// @Description window, with deltas against the prior window
// @Tags Dashboard
// @Produce json
// @Param windowDays query int false "Window size in days" default(30)
// @Success 200 {object} domain.DashboardMetrics
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	windowDays, _ := strconv.Atoi(r.URL.Query().Get("windowDays"))

	metrics, err := h.metricsService.GetDashboardMetrics(r.Context(), windowDays)
	if err != nil {
		h.logger.Error("failed to compute dashboard metrics", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}
