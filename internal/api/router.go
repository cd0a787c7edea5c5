// Package api provides the HTTP API for Sangam.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/api/handler"
	"github.com/sangamlabs/sangam/internal/api/middleware"
	"github.com/sangamlabs/sangam/internal/device"
	"github.com/sangamlabs/sangam/internal/engagement"
	"github.com/sangamlabs/sangam/internal/notification"
	"github.com/sangamlabs/sangam/internal/viewledger"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string

	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Verifier *middleware.Verifier

	ViewLedger          *viewledger.Service
	EngagementService   *engagement.Service
	NotificationService *notification.Service
	DeviceService       *device.Service

	// DB is used by the readiness probe; may be nil in tests.
	DB handler.Pinger

	// BroadcastPublisher queues admin broadcasts; nil means run them
	// synchronously through BroadcastRunner.
	BroadcastPublisher handler.BroadcastPublisher
	BroadcastRunner    handler.BroadcastRunner
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "sangam-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	profileViewHandler := handler.NewProfileViewHandler(cfg.ViewLedger)
	engagementHandler := handler.NewEngagementHandler(cfg.EngagementService)
	notificationHandler := handler.NewNotificationHandler(cfg.NotificationService)
	deviceHandler := handler.NewDeviceHandler(cfg.DeviceService)
	adminHandler := handler.NewAdminHandler(cfg.BroadcastPublisher, cfg.BroadcastRunner)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.Verifier)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Profile views (authenticated) - unlocks charge tokens, so the
		// spend endpoint is capped harder than reads
		r.Route("/profile-views", func(r chi.Router) {
			r.Use(authMiddleware)
			r.With(middleware.RateLimitByMember(middleware.SpendRateLimit)).
				Post("/", profileViewHandler.UnlockView)
			r.With(middleware.RateLimitByMember(middleware.StandardRateLimit)).
				Get("/viewers", profileViewHandler.ListViewers)
		})

		// Engagement actions (authenticated)
		r.Route("/engagement-actions", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByMember(middleware.StandardRateLimit))
			r.Post("/", engagementHandler.UpsertAction)
			r.Delete("/", engagementHandler.WithdrawAction)
			r.Get("/", engagementHandler.ListActions)
		})

		// Notifications (authenticated)
		r.Route("/notifications", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByMember(middleware.StandardRateLimit))
			r.Get("/", notificationHandler.ListNotifications)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Put("/read-all", notificationHandler.MarkAllRead)
			r.Put("/{notificationId}/read", notificationHandler.MarkRead)
		})

		// Devices (authenticated)
		r.Route("/devices", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByMember(middleware.StandardRateLimit))
			r.Get("/", deviceHandler.ListDevices)
			r.Post("/", deviceHandler.RegisterDevice)
			r.Delete("/{deviceId}", deviceHandler.UnregisterDevice)
		})

		// Admin endpoints (authenticated, admin role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin)
			r.Use(middleware.RateLimitByMember(middleware.AdminRateLimit))
			r.Post("/broadcasts", adminHandler.Broadcast)
		})
	})

	return r
}
