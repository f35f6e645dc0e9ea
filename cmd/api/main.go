package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/monitor-report/internal/api/http"
	"github.com/spec-kit/monitor-report/internal/api/http/handlers"
	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/config"
	"github.com/spec-kit/monitor-report/internal/events"
	"github.com/spec-kit/monitor-report/internal/observability"
	"github.com/spec-kit/monitor-report/internal/persistence"
	"github.com/spec-kit/monitor-report/internal/policy"
	"github.com/spec-kit/monitor-report/internal/repository"
	"github.com/spec-kit/monitor-report/internal/service"
	"github.com/spec-kit/monitor-report/internal/worker"
)

const notificationQueueSize = 256

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, "", logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		redis    *persistence.Redis
		denylist auth.Denylist
	)
	if cfg.Auth.RevocationEnabled {
		redis, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("token revocation requires redis", zap.Error(err))
		}
		defer redis.Close()
		denylist = auth.NewRedisDenylist(redis.Client)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	authenticator := auth.NewAuthenticator(tokens, denylist)

	userRepo := repository.NewUserRepository(pool)
	serverRepo := repository.NewServerRepository(pool)
	reportRepo := repository.NewReportRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	pol := policy.New(reportRepo, commentRepo)
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:          userRepo,
		Hasher:            hasher,
		Tokens:            tokens,
		Authenticator:     authenticator,
		RevocationEnabled: cfg.Auth.RevocationEnabled,
		Logger:            logger,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo: reportRepo,
		ServerRepo: serverRepo,
		Policy:     pol,
		Dispatcher: dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: commentRepo,
		ReportRepo:  reportRepo,
		Policy:      pol,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	masterService := service.NewMasterService(service.MasterDependencies{
		ServerRepo: serverRepo,
		UserRepo:   userRepo,
		Hasher:     hasher,
		Policy:     pol,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications := worker.StartNotificationWorker(ctx, notificationService, logger, notificationQueueSize)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Reports:        handlers.NewReportsHandler(reportService, commentService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Masters:        handlers.NewMastersHandler(masterService),
		AuthMiddleware: auth.NewAuthMiddleware(authenticator),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	cancel()
	<-notifications.Done()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
