package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/visitplanner/internal/adapters/cache"
	"github.com/zatekoja/visitplanner/internal/adapters/database"
	"github.com/zatekoja/visitplanner/internal/adapters/events"
	"github.com/zatekoja/visitplanner/internal/adapters/messaging"
	"github.com/zatekoja/visitplanner/internal/api/handlers"
	"github.com/zatekoja/visitplanner/internal/api/routes"
	"github.com/zatekoja/visitplanner/internal/application/services"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/providers"
	"github.com/zatekoja/visitplanner/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/visitplanner/internal/infrastructure/clients/rabbitmq"
	"github.com/zatekoja/visitplanner/internal/infrastructure/clients/redis"
	"github.com/zatekoja/visitplanner/internal/infrastructure/observability"
	"github.com/zatekoja/visitplanner/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis backs the plan cache and the event bus; the service runs without both
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without plan cache and events")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	var bookingPublisher providers.BookingPublisher
	if cfg.RabbitMQ.Enabled {
		bookingPublisher, err = newBookingPublisher(ctx, &cfg.RabbitMQ)
		if err != nil {
			log.Warn().Err(err).Msg("booking queue unavailable, plans will not be handed off")
		} else {
			defer bookingPublisher.Close()
		}
	}

	planRepo := database.NewTreatmentPlanAdapter(pgClient)
	procedureRepo := database.NewProposedProcedureAdapter(pgClient)

	planningService := services.NewVisitPlanningService(
		planRepo,
		procedureRepo,
		cacheProvider,
		eventBus,
		bookingPublisher,
		metrics,
		services.VisitPlanningConfig{
			DefaultConstraints: entities.Constraints{
				MaxDurationPerVisit:    cfg.Planner.MaxDurationPerVisit,
				MaxProceduresPerVisit:  cfg.Planner.MaxProceduresPerVisit,
				AllowMultipleQuadrants: cfg.Planner.AllowMultipleQuadrants,
				PreferAdjacentTeeth:    cfg.Planner.PreferAdjacentTeeth,
			},
			CacheTTLSeconds: cfg.Planner.CacheTTLSeconds,
		},
	)

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.FlushPlans(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to flush plan cache")
		}
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			cacheInvalidationService = nil
		}
	}

	router := routes.NewRouter(handlers.NewVisitPlanHandler(planningService), metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}

// newBookingPublisher dials the broker and opens a dedicated publishing channel
func newBookingPublisher(ctx context.Context, cfg *config.RabbitMQConfig) (providers.BookingPublisher, error) {
	client, err := rabbitmq.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ch, err := client.Channel()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	publisher, err := messaging.NewRabbitMQBookingPublisher(ch, cfg.BookingQueue)
	if err != nil {
		_ = ch.Close()
		_ = client.Close()
		return nil, err
	}
	return &connectionOwningPublisher{RabbitMQBookingPublisher: publisher, client: client}, nil
}

// connectionOwningPublisher closes the broker connection along with the channel
type connectionOwningPublisher struct {
	*messaging.RabbitMQBookingPublisher
	client *rabbitmq.Client
}

func (p *connectionOwningPublisher) Close() error {
	return errors.Join(p.RabbitMQBookingPublisher.Close(), p.client.Close())
}
