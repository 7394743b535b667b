package router

import (
	"encoding/json"
	"net/http"

	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/config"
	"github.com/fixpoint-as/repair-api/internal/database"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/http/handler"
	"github.com/fixpoint-as/repair-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/fixpoint-as/repair-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	metrics             *middleware.Metrics
	leadHandler         *handler.LeadHandler
	invoiceHandler      *handler.InvoiceHandler
	dashboardHandler    *handler.DashboardHandler
	staffHandler        *handler.StaffHandler
	authHandler         *handler.AuthHandler
	fileHandler         *handler.FileHandler
	notificationHandler *handler.NotificationHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	metrics *middleware.Metrics,
	leadHandler *handler.LeadHandler,
	invoiceHandler *handler.InvoiceHandler,
	dashboardHandler *handler.DashboardHandler,
	staffHandler *handler.StaffHandler,
	authHandler *handler.AuthHandler,
	fileHandler *handler.FileHandler,
	notificationHandler *handler.NotificationHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		metrics:             metrics,
		leadHandler:         leadHandler,
		invoiceHandler:      invoiceHandler,
		dashboardHandler:    dashboardHandler,
		staffHandler:        staffHandler,
		authHandler:         authHandler,
		fileHandler:         fileHandler,
		notificationHandler: notificationHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security, rt.cfg.App.Environment))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment))
	r.Use(rt.metrics.Instrument)
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth. Token exchange is called by the identity proxy with the
			// admin API key, which authenticates as a system admin.
			r.With(rt.authMiddleware.RequireCapability(domain.CapabilityStaffManage)).Post("/auth/token", rt.authHandler.IssueToken)
			r.Get("/auth/me", rt.authHandler.Me)

			// Leads
			r.Route("/leads", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityLeadsRead)).Get("/", rt.leadHandler.List)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityLeadsWrite)).Post("/", rt.leadHandler.Create)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityLeadsRead)).Get("/follow-ups", rt.leadHandler.FollowUps)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityLeadsRead)).Get("/{id}", rt.leadHandler.Get)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityLeadsWrite)).Put("/{id}", rt.leadHandler.Update)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityLeadsWrite)).Post("/{id}/remarks", rt.leadHandler.AddRemark)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityLeadsCancel)).Post("/{id}/cancel", rt.leadHandler.Cancel)

				// Attachments
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityFilesWrite)).Post("/{id}/attachments", rt.fileHandler.Upload)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityFilesRead)).Get("/{id}/attachments", rt.fileHandler.ListByLead)
			})

			// Attachments by ID
			r.Route("/attachments", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityFilesRead)).Get("/{id}", rt.fileHandler.Download)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityFilesWrite)).Delete("/{id}", rt.fileHandler.Delete)
			})

			// Invoices
			r.Route("/invoices", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityInvoicesRead)).Get("/", rt.invoiceHandler.List)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityInvoicesWrite)).Post("/", rt.invoiceHandler.Generate)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityInvoicesRead)).Get("/number/{number}", rt.invoiceHandler.GetByNumber)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityInvoicesRead)).Get("/{id}", rt.invoiceHandler.Get)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityInvoicesPayment)).Put("/{id}/payment", rt.invoiceHandler.UpdatePayment)
			})

			// Dashboard
			r.With(rt.authMiddleware.RequireCapability(domain.CapabilityReportsView)).Get("/dashboard/metrics", rt.dashboardHandler.GetMetrics)

			// Staff
			r.Route("/staff", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityStaffRead)).Get("/", rt.staffHandler.List)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityStaffManage)).Post("/", rt.staffHandler.Create)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityStaffRead)).Get("/{id}", rt.staffHandler.Get)
				r.With(rt.authMiddleware.RequireCapability(domain.CapabilityStaffManage)).Put("/{id}", rt.staffHandler.Update)
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.List)
				r.Post("/read-all", rt.notificationHandler.MarkAllRead)
				r.Post("/{id}/read", rt.notificationHandler.MarkRead)
			})
		})
	})

	return r
}
