package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/beckershow/colaborador-portal/internal/api/http"
	"github.com/beckershow/colaborador-portal/internal/api/http/handlers"
	"github.com/beckershow/colaborador-portal/internal/auth"
	"github.com/beckershow/colaborador-portal/internal/cache"
	"github.com/beckershow/colaborador-portal/internal/config"
	"github.com/beckershow/colaborador-portal/internal/events"
	"github.com/beckershow/colaborador-portal/internal/observability"
	"github.com/beckershow/colaborador-portal/internal/persistence"
	"github.com/beckershow/colaborador-portal/internal/repository"
	"github.com/beckershow/colaborador-portal/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("postgres is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	userRepo := repository.NewUserRepository(pool)
	settingsRepo := repository.NewCachedSettingsRepository(repository.NewSettingsRepository(pool), cfg.Feedback.SettingsCacheTTL())
	teamRepo := repository.NewTeamConfigRepository(pool)
	overrideRepo := repository.NewUserOverrideRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Logger:   logger,
	})
	configService := service.NewConfigService(service.ConfigDependencies{
		SettingsRepo: settingsRepo,
		TeamRepo:     teamRepo,
		OverrideRepo: overrideRepo,
		UserRepo:     userRepo,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	feedbackService := service.NewFeedbackService(service.FeedbackDependencies{
		FeedbackRepo: feedbackRepo,
		UserRepo:     userRepo,
		SettingsRepo: settingsRepo,
		TeamRepo:     teamRepo,
		OverrideRepo: overrideRepo,
		Counter:      cache.NewSendCounter(redis.Client),
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
		Location:     cfg.Feedback.Location(),
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Settings:       handlers.NewSettingsHandler(configService),
		Feedback:       handlers.NewFeedbackHandler(feedbackService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
