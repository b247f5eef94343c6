package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-tracker/internal/api/http"
	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/persistence"
	"github.com/spec-kit/ticket-tracker/internal/realtime"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
	"github.com/spec-kit/ticket-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	ticketRepo, agentRepo := buildRepositories(ctx, cfg, pg, logger)

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	// The notifier exists before the realtime transport; it is attached below.
	notifier := service.NewTicketNotifier(logger, metrics, cfg.Realtime.PublishTimeout())

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(agentRepo, tokens)
	agentService := service.NewAgentService(agentRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		AgentRepo:  agentRepo,
		Notifier:   notifier,
		Logger:     logger,
		Metrics:    metrics,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), agentRepo, cfg.Auth.CookieName)

	hub := realtime.NewHub(logger, metrics, cfg.Realtime.ObserverBuffer)
	attachRealtime(ctx, cfg, redis, hub, notifier, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Agents:         handlers.NewAgentsHandler(agentService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Realtime:       handlers.NewRealtimeHandler(hub, cfg.Realtime.Heartbeat()),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	hub.Close()
	_ = app.Shutdown()
}

func buildRepositories(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) (repository.TicketRepository, repository.AgentRepository) {
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		if cfg.Postgres.SeedData {
			if err := persistence.SeedDemoData(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to seed demo data", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		return repository.NewTicketRepository(pool), repository.NewAgentRepository(pool)
	}

	agents := persistence.DemoAgents()
	ticketRepo := repository.NewMemoryTicketRepository()
	if cfg.Postgres.SeedData {
		n, err := persistence.SeedMemoryTickets(ctx, ticketRepo, agents[0].ID)
		if err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
		logger.Info("demo data seeded", zap.Int("agents", len(agents)), zap.Int("tickets", n))
	}
	return ticketRepo, repository.NewMemoryAgentRepository(agents...)
}

// attachRealtime binds the notifier to the Redis bus when one is reachable,
// otherwise straight to the local hub.
func attachRealtime(ctx context.Context, cfg *config.Config, redis *persistence.Redis, hub *realtime.Hub, notifier *service.TicketNotifier, logger *zap.Logger) {
	if redis.Reachable() {
		bus := realtime.NewRedisBus(redis.Client, cfg.Realtime.RedisChannel, logger)
		if err := worker.StartRealtimeForwarder(ctx, bus, hub, logger); err == nil {
			notifier.Attach(bus)
			logger.Info("realtime fan-out via redis", zap.String("channel", cfg.Realtime.RedisChannel))
			return
		}
	}
	notifier.Attach(hub)
	logger.Info("realtime fan-out in-process")
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
