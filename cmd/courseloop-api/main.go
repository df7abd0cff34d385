// Package main is the entry point for the courseloop-api server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/database"
	"github.com/courseloop/courseloop-api/internal/http/handlers"
	"github.com/courseloop/courseloop-api/internal/http/mw"
	"github.com/courseloop/courseloop-api/internal/logging"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/repository"
	"github.com/courseloop/courseloop-api/internal/service"
	"github.com/courseloop/courseloop-api/internal/version"
)

func main() {
	// Initialize logger with TTY detection, source paths, and format control
	logger := logging.SetDefault()

	// Log version info first thing
	v := version.Get()
	logger.Info("starting courseloop-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations (with logging for each migration applied)
	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Log current schema version
	schemaVersion, err := database.GetLatestSchemaVersion(db)
	if err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		logger.Info("database schema ready", "schema_version", schemaVersion)
	}

	// Initialize repositories and services
	repos := repository.NewRepositories(db)
	services := service.NewServices(cfg, repos, logger)

	// Bootstrap the admin account if configured
	if err := services.Auth.EnsureAdmin(context.Background()); err != nil {
		logger.Error("failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	if !cfg.AdvisorEnabled() {
		logger.Warn("ADVISOR_API_KEY not set - recommendation endpoint will be unavailable")
	}

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	// Global rate limit by IP (fallback for unauthenticated requests)
	router.Use(httprate.LimitByIP(100, time.Minute))

	// Global concurrency throttle - prevent system overload
	router.Use(middleware.Throttle(100))

	// Huma API config with OpenAPI docs
	humaConfig := huma.DefaultConfig("Courseloop API", version.Version)
	humaConfig.Info.Description = "Online learning marketplace API with usage-gated course recommendations."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:        "http",
			Scheme:      "bearer",
			Description: "JWT access token from /api/v1/auth/login.",
		},
	}
	api := humachi.New(router, humaConfig)

	// Config for hidden routes (K8s probes - no docs needed)
	hiddenConfig := huma.DefaultConfig("Courseloop API", version.Version)
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	hiddenAPI := humachi.New(router, hiddenConfig)

	// Config for protected routes (docs are served by the main API)
	protectedConfig := huma.DefaultConfig("Courseloop API", version.Version)
	protectedConfig.Info.Description = humaConfig.Info.Description
	protectedConfig.Servers = humaConfig.Servers
	protectedConfig.DocsPath = ""
	protectedConfig.OpenAPIPath = ""
	protectedConfig.SchemasPath = ""

	// Public routes
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)

	authHandler := handlers.NewAuthHandler(services.Auth)
	huma.Post(api, "/api/v1/auth/register", authHandler.Register)
	huma.Post(api, "/api/v1/auth/login", authHandler.Login)
	huma.Post(api, "/api/v1/auth/refresh", authHandler.Refresh)

	courseHandler := handlers.NewCourseHandler(services.Course)
	huma.Get(api, "/api/v1/courses", courseHandler.ListCourses)
	huma.Get(api, "/api/v1/courses/{id}", courseHandler.GetCourse)

	// Kubernetes probes (hidden from docs - internal use only)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	readyzHandler := handlers.NewReadyzHandler(db)
	huma.Get(hiddenAPI, "/readyz", readyzHandler.Readyz)

	// Authenticated routes (any role)
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(services.Auth))
		r.Use(mw.RateLimitByUser(mw.DefaultRateLimitConfig()))

		authedAPI := humachi.New(r, protectedConfig)
		huma.Get(authedAPI, "/api/v1/auth/me", authHandler.Me)

		advisorHandler := handlers.NewAdvisorHandler(services.Advisor)
		huma.Post(authedAPI, "/api/v1/recommend", advisorHandler.Recommend)
		huma.Get(authedAPI, "/api/v1/recommend/suggestions", advisorHandler.Suggestions)
	})

	// Student routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(services.Auth))
		r.Use(mw.RequireRole(models.RoleStudent, models.RoleAdmin))
		r.Use(mw.RateLimitByUser(mw.DefaultRateLimitConfig()))

		studentAPI := humachi.New(r, protectedConfig)
		huma.Post(studentAPI, "/api/v1/courses/{id}/enroll", courseHandler.Enroll)
		huma.Get(studentAPI, "/api/v1/my/courses", courseHandler.ListEnrolled)
	})

	// Instructor routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(services.Auth))
		r.Use(mw.RequireRole(models.RoleInstructor, models.RoleAdmin))
		r.Use(mw.RateLimitByUser(mw.DefaultRateLimitConfig()))

		instructorAPI := humachi.New(r, protectedConfig)
		huma.Post(instructorAPI, "/api/v1/courses", courseHandler.CreateCourse)
		huma.Put(instructorAPI, "/api/v1/courses/{id}", courseHandler.UpdateCourse)
		huma.Delete(instructorAPI, "/api/v1/courses/{id}", courseHandler.DeleteCourse)
		huma.Get(instructorAPI, "/api/v1/my/teaching", courseHandler.ListTeaching)
		huma.Get(instructorAPI, "/api/v1/courses/{id}/students", courseHandler.Roster)
	})

	// Admin routes (usage ledger management)
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(services.Auth))
		r.Use(mw.RequireRole(models.RoleAdmin))

		adminAPI := humachi.New(r, protectedConfig)
		adminUsageHandler := handlers.NewAdminUsageHandler(services.Usage)
		huma.Get(adminAPI, "/api/v1/admin/usage", adminUsageHandler.GetUsage)
		huma.Put(adminAPI, "/api/v1/admin/usage/settings", adminUsageHandler.UpdateSettings)
		huma.Post(adminAPI, "/api/v1/admin/usage/reset", adminUsageHandler.ResetUsage)
		huma.Get(adminAPI, "/api/v1/admin/usage/history", adminUsageHandler.GetHistory)
		huma.Get(adminAPI, "/api/v1/admin/usage/summary", adminUsageHandler.GetSummary)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
