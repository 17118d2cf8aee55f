package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/admin"
	httptransport "github.com/spec-kit/ticket-desk/internal/api/http"
	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/lifecycle"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/panel"
	"github.com/spec-kit/ticket-desk/internal/quota"
	"github.com/spec-kit/ticket-desk/internal/registry"
	"github.com/spec-kit/ticket-desk/internal/router"
	"github.com/spec-kit/ticket-desk/internal/store"
	"github.com/spec-kit/ticket-desk/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := newStoreBackend(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to open ticket store", zap.Error(err))
	}
	defer backend.Close() //nolint:errcheck

	writer := store.NewWriter(backend, logger)
	defer writer.Close()

	reg := registry.New(backend, writer, logger)
	reg.Load(ctx)

	chat := gateway.NewLogChat(logger)
	if _, err := reg.Reconcile(ctx, chat); err != nil {
		logger.Error("registry reconciliation did not fully persist", zap.Error(err))
	}

	panels, err := panel.NewRegistry(panel.BuiltIn()...)
	if err != nil {
		logger.Fatal("failed to register panels", zap.Error(err))
	}

	transcripts, err := transcript.NewFileGenerator(chat, cfg.Ticket.TranscriptDir)
	if err != nil {
		logger.Fatal("failed to prepare transcript directory", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	policy := auth.NewPolicy(cfg.Roles.ByCategory)
	guard := quota.NewGuard(cfg.Quota)

	lifecycleService := lifecycle.NewService(lifecycle.Dependencies{
		Registry:    reg,
		Chat:        chat,
		Policy:      policy,
		Quota:       guard,
		Panels:      panels,
		Transcripts: transcripts,
		Metrics:     metrics,
		Logger:      logger,
		DeleteGrace: cfg.Ticket.DeleteGrace(),
	})
	adminService := admin.NewService(reg, logger)

	eventRouter := router.New(logger, metrics)
	router.Register(eventRouter, router.Deps{
		Lifecycle: lifecycleService,
		Admin:     adminService,
		Registry:  reg,
		Policy:    policy,
		Panels:    panels,
	})

	tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTLMinutes)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, backend),
		Auth:   handlers.NewAuthHandler(cfg.Admin, tokens),
		Admin:  handlers.NewAdminHandler(adminService, metrics),
		Events: handlers.NewEventsHandler(eventRouter),
		Tokens: tokens,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func newStoreBackend(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.StoreBackendPostgres:
		return store.NewPostgresStore(ctx, cfg.Postgres, logger)
	case config.StoreBackendRedis:
		return store.NewRedisStore(cfg.Redis, logger), nil
	default:
		return store.NewFileStore(cfg.FilePath)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
