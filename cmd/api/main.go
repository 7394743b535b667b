package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixpoint-as/repair-api/docs"
	"github.com/fixpoint-as/repair-api/internal/accounting"
	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/config"
	"github.com/fixpoint-as/repair-api/internal/database"
	"github.com/fixpoint-as/repair-api/internal/http/handler"
	"github.com/fixpoint-as/repair-api/internal/http/middleware"
	"github.com/fixpoint-as/repair-api/internal/http/router"
	"github.com/fixpoint-as/repair-api/internal/jobs"
	"github.com/fixpoint-as/repair-api/internal/logger"
	"github.com/fixpoint-as/repair-api/internal/notify"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/fixpoint-as/repair-api/internal/service"
	"github.com/fixpoint-as/repair-api/internal/storage"
	"go.uber.org/zap"
)

// jobTimeout bounds each scheduled job run
const jobTimeout = 5 * time.Minute

// @title FixPoint Repair API
// @version 1.0
// @description CRM API for device repair shop lead, invoice and payment management
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@fixpoint.no

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "repair-api-staging.fixpoint.no"
	case "production":
		docs.SwaggerInfo.Host = "api.fixpoint.no"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize accounting connection (optional, for paid invoice export)
	// The app continues without it if not configured.
	var accountingClient *accounting.Client
	if cfg.Accounting.Enabled {
		accountingClient, err = accounting.NewClient(&cfg.Accounting, log)
		if err != nil {
			log.Warn("Accounting connection failed, continuing without it",
				zap.Error(err),
			)
		}
	} else {
		log.Info("Accounting export not configured, skipping")
	}

	// Initialize repositories
	leadRepo := repository.NewLeadRepository(db)
	remarkRepo := repository.NewLeadRemarkRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	sequenceRepo := repository.NewInvoiceSequenceRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// Initialize services
	leadService := service.NewLeadService(leadRepo, remarkRepo, staffRepo, notificationRepo, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, sequenceRepo, leadRepo, log)
	metricsService := service.NewMetricsService(leadRepo, invoiceRepo, log)
	staffService := service.NewStaffService(staffRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	fileService := service.NewFileService(attachmentRepo, leadRepo, fileStorage, cfg.Storage.MaxUploadSizeMB, log)

	// Initialize auth and middleware
	tokens, err := auth.NewTokenManager(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	authMiddleware := auth.NewMiddleware(cfg, tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	httpMetrics := middleware.NewMetrics()

	// Initialize handlers
	leadHandler := handler.NewLeadHandler(leadService, httpMetrics, log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, httpMetrics, log)
	dashboardHandler := handler.NewDashboardHandler(metricsService, log)
	staffHandler := handler.NewStaffHandler(staffService, log)
	authHandler := handler.NewAuthHandler(staffService, tokens, log)
	fileHandler := handler.NewFileHandler(fileService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		httpMetrics,
		leadHandler,
		invoiceHandler,
		dashboardHandler,
		staffHandler,
		authHandler,
		fileHandler,
		notificationHandler,
	)

	// Initialize and start the background job scheduler
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		mailer := notify.NewMailer(&cfg.Mail, log)

		if err := jobs.RegisterFollowUpJob(
			scheduler, leadRepo, notificationRepo, mailer, log,
			cfg.Jobs.FollowUpSchedule, jobTimeout,
		); err != nil {
			log.Error("Failed to register follow-up job", zap.Error(err))
		}

		if err := jobs.RegisterReconcileJob(
			scheduler, invoiceService, log,
			cfg.Jobs.ReconcileSchedule, jobTimeout,
		); err != nil {
			log.Error("Failed to register reconcile job", zap.Error(err))
		}

		if accountingClient.IsEnabled() {
			exporter := accounting.NewExporter(accountingClient, invoiceRepo, log)
			if err := jobs.RegisterAccountingExportJob(
				scheduler, exporter, log,
				cfg.Jobs.AccountingExportSchedule, jobTimeout,
			); err != nil {
				log.Error("Failed to register accounting export job", zap.Error(err))
			}
		}

		scheduler.Start()
		log.Info("Scheduler started",
			zap.Strings("jobs", scheduler.GetJobNames()),
		)
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close accounting connection if initialized
		if accountingClient != nil {
			if err := accountingClient.Close(); err != nil {
				log.Warn("Error closing accounting connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
