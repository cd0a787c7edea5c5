// Package main provides the entrypoint for the Sangam API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/api"
	"github.com/sangamlabs/sangam/internal/api/handler"
	"github.com/sangamlabs/sangam/internal/api/middleware"
	"github.com/sangamlabs/sangam/internal/database"
	"github.com/sangamlabs/sangam/internal/device"
	"github.com/sangamlabs/sangam/internal/engagement"
	"github.com/sangamlabs/sangam/internal/featureflags"
	"github.com/sangamlabs/sangam/internal/member"
	"github.com/sangamlabs/sangam/internal/notification"
	"github.com/sangamlabs/sangam/internal/push"
	"github.com/sangamlabs/sangam/internal/telemetry"
	"github.com/sangamlabs/sangam/internal/viewledger"
	"github.com/sangamlabs/sangam/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "sangam-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Sangam API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	pushMetrics, err := push.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize push metrics")
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT verifier (shared secret with the identity service)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	verifier := middleware.NewVerifier(middleware.VerifierConfig{
		SigningKey: jwtSigningKey,
	})

	// Initialize member directory
	memberRepo := member.NewPostgresRepository(pool)
	directory := member.NewDirectory(memberRepo)
	log.Info().Msg("member directory initialized")

	// Initialize feature flags repository and service
	ffRepo := featureflags.NewPostgresRepository(pool)
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize device registry
	deviceRepo := device.NewPostgresRepository(pool)
	deviceService := device.NewService(deviceRepo, log)
	log.Info().Msg("device registry initialized")

	// Initialize push gateway and dispatcher. Without Firebase
	// credentials the API stores notifications but sends nothing.
	var dispatcher *push.Dispatcher
	credentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if credentialsFile != "" {
		gateway, gwErr := push.NewFCMGateway(ctx, credentialsFile)
		if gwErr != nil {
			log.Fatal().Err(gwErr).Msg("failed to initialize FCM gateway")
		}
		dispatcher = push.NewDispatcher(push.DispatcherConfig{
			Gateway: push.NewBreakerGateway(gateway, push.DefaultBreakerConfig(log)),
			Tokens:  deviceService,
			Flags:   ffService,
			Metrics: pushMetrics,
			Logger:  log,
		})
		log.Info().Msg("push dispatcher initialized")
	} else {
		log.Warn().Msg("FIREBASE_CREDENTIALS_FILE not set - push delivery disabled")
	}

	// Initialize notification outbox
	notificationRepo := notification.NewPostgresRepository(pool)
	notificationCfg := notification.ServiceConfig{
		Repository: notificationRepo,
		Logger:     log,
	}
	if dispatcher != nil {
		notificationCfg.Sender = dispatcher
	}
	notificationService := notification.NewService(notificationCfg)
	log.Info().Msg("notification service initialized")

	// Initialize view-token ledger
	ledgerRepo := viewledger.NewPostgresRepository(pool)
	ledgerService := viewledger.NewService(viewledger.ServiceConfig{
		Repository: ledgerRepo,
		Directory:  directory,
		Emitter:    notificationService,
		Logger:     log,
	})
	log.Info().Msg("view ledger initialized")

	// Initialize engagement store
	engagementRepo := engagement.NewPostgresRepository(pool)
	engagementService := engagement.NewService(engagement.ServiceConfig{
		Repository: engagementRepo,
		Directory:  directory,
		Emitter:    notificationService,
		Logger:     log,
	})
	log.Info().Msg("engagement service initialized")

	// Initialize broadcast delivery: queue to the worker when Pub/Sub is
	// configured, otherwise fan out synchronously in-process.
	var broadcastPublisher handler.BroadcastPublisher
	var broadcastRunner handler.BroadcastRunner
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	topicName := os.Getenv("PUBSUB_BROADCAST_TOPIC")
	switch {
	case projectID != "" && topicName != "":
		publisher, pubErr := worker.NewPublisher(ctx, worker.PublisherConfig{
			ProjectID: projectID,
			TopicName: topicName,
			Logger:    log,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to initialize broadcast publisher")
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close broadcast publisher")
			}
		}()
		broadcastPublisher = publisher
		log.Info().Str("topic", topicName).Msg("broadcast publisher initialized")
	case dispatcher != nil:
		broadcastRunner = worker.NewBroadcastJob(worker.BroadcastJobConfig{
			Members:    directory,
			Dispatcher: dispatcher,
			Flags:      ffService,
			Logger:     log,
		})
		log.Info().Msg("synchronous broadcast runner initialized")
	default:
		log.Warn().Msg("no broadcast delivery configured")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:             Version,
		BuildTime:           BuildTime,
		Logger:              log,
		ServiceName:         serviceName,
		Metrics:             metrics,
		Verifier:            verifier,
		ViewLedger:          ledgerService,
		EngagementService:   engagementService,
		NotificationService: notificationService,
		DeviceService:       deviceService,
		DB:                  pool,
		BroadcastPublisher:  broadcastPublisher,
		BroadcastRunner:     broadcastRunner,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
