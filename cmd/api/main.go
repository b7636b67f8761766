package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/user-service/internal/api/http"
	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/observability"
	"github.com/spec-kit/user-service/internal/persistence"
	"github.com/spec-kit/user-service/internal/repository"
	"github.com/spec-kit/user-service/internal/service"
	"github.com/spec-kit/user-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("postgres is required", zap.Error(persistence.ErrPostgresNotConfigured))
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	deps := map[string]handlers.Pinger{"postgres": pg}

	var denylist auth.Denylist
	switch cfg.Auth.RevocationStore {
	case config.RevocationStoreRedis:
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		deps["redis"] = redis
		denylist = auth.NewRedisDenylist(redis.Client)
	default:
		memory := auth.NewMemoryDenylist()
		denylist = memory
		if err := metrics.RegisterGauge("denylist_entries", "Revoked tokens held in memory.", func() float64 {
			return float64(memory.Len())
		}); err != nil {
			logger.Warn("denylist gauge not registered", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, worker.NewAuditWorker(logger))

	userRepo := repository.NewUserRepository(pool)
	webhookRepo := repository.NewWebhookEventRepository(pool)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Hasher:     hasher,
		Tokens:     tokens,
		Denylist:   denylist,
		Dispatcher: dispatcher,
		Logger:     logger,
		DummyHash:  cfg.Auth.DummyHash,
	})
	userService := service.NewUserService(userRepo, hasher, dispatcher, logger)
	webhookService := service.NewWebhookService(webhookRepo, dispatcher, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.NewErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSAllowOrigins)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:            handlers.NewAuthHandler(authService),
		Users:           handlers.NewUsersHandler(userService),
		Webhooks:        handlers.NewWebhooksHandler(webhookService),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens, denylist),
		Metrics:         metrics.Handler(),
		WebhookSecret:   cfg.Webhook.Secret,
		SignatureHeader: cfg.Webhook.SignatureHeader,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
	}

	// Pending expiry timers are stopped; a shared Redis denylist is left intact.
	if memory, ok := denylist.(*auth.MemoryDenylist); ok {
		_ = memory.Clear(context.Background())
	}
}
