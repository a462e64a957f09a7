package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maisonvera/concierge/internal/adapters/cache"
	"github.com/maisonvera/concierge/internal/adapters/database"
	"github.com/maisonvera/concierge/internal/adapters/events"
	"github.com/maisonvera/concierge/internal/adapters/providers/commerce"
	"github.com/maisonvera/concierge/internal/api/handlers"
	"github.com/maisonvera/concierge/internal/api/routes"
	"github.com/maisonvera/concierge/internal/application/services"
	"github.com/maisonvera/concierge/internal/domain/providers"
	"github.com/maisonvera/concierge/internal/infrastructure/clients/postgres"
	"github.com/maisonvera/concierge/internal/infrastructure/clients/redis"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
	"github.com/maisonvera/concierge/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis is optional: without it the engine runs with in-process
	// caching disabled and a memory analytics sink.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	var analyticsSink providers.AnalyticsSink
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		analyticsSink = events.NewRedisSink(redisClient)
	} else {
		analyticsSink = events.NewMemorySink(1000)
	}

	// Postgres is optional too: the built-in collection serves local
	// development when no database is configured.
	var catalogProvider providers.CatalogProvider
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("postgres unavailable, serving the built-in collection")
		catalogProvider = commerce.NewMockCatalogAdapter()
	} else {
		defer pgClient.Close()
		catalogProvider = database.NewCatalogAdapter(pgClient)
		logger.Info().Msg("postgres client initialized")
	}

	// Commerce collaborators. These are the deterministic in-memory
	// implementations; production deployments swap in real gateways
	// behind the same provider interfaces.
	orderProvider := commerce.NewMockOrderAdapter()
	returnsProvider := commerce.NewMockReturnsAdapter()
	ticketingProvider := commerce.NewMockTicketingAdapter()
	capsuleStore := commerce.NewMockCapsuleAdapter(cfg.Concierge.CapsuleHoldTTL)
	csatProvider := commerce.NewMockCSATAdapter()

	// Core services
	sessionStore := services.NewSessionStore(cfg.Concierge.SessionTTL)
	guard := services.NewIdempotencyGuard(cfg.Concierge.IdempotencyTTL, cacheProvider)
	dispatcher := services.NewActionDispatcher(
		orderProvider, returnsProvider, ticketingProvider, capsuleStore, csatProvider,
		cfg.Concierge.DispatchTimeout, metrics,
	)

	conversationService := services.NewConversationService(services.ConversationServiceDeps{
		Classifier:  services.NewIntentClassifier(services.DefaultClassifierRules()),
		Machine:     services.NewConversationStateMachine(services.NewOfferTriggerEvaluator(services.DefaultBespokeKeywords()), cfg.Concierge.CSATEscalationThreshold),
		Recommender: services.NewRecommendationService(services.DefaultScoringWeights(), cfg.Concierge.TopK),
		Dispatcher:  dispatcher,
		Guard:       guard,
		Store:       sessionStore,
		Analytics:   services.NewAnalyticsService(analyticsSink, cfg.Concierge.AnalyticsSalt),
		Catalog:     catalogProvider,
		Cache:       cacheProvider,
		CacheTTL:    cfg.Concierge.CatalogCacheTTL,
		Metrics:     metrics,
	})

	// Background sweeps for expired sessions and idempotency entries.
	go runSweeps(ctx, sessionStore, guard)

	turnHandler := handlers.NewTurnHandler(conversationService)
	router := routes.NewRouter(turnHandler)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}

// runSweeps evicts idle sessions and expired idempotency entries on a
// fixed cadence until the context is cancelled.
func runSweeps(ctx context.Context, store *services.SessionStore, guard *services.IdempotencyGuard) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	logger := observability.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions := store.Sweep()
			entries := guard.Sweep()
			if sessions > 0 || entries > 0 {
				logger.Debug().
					Int("sessions", sessions).
					Int("idempotency_entries", entries).
					Msg("sweep completed")
			}
		}
	}
}
