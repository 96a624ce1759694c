// Package server wires configuration, storage, the completion client and
// the transports into a runnable application with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/archive"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/conversation"
	"github.com/dmitrijs2005/gophchat/internal/server/gemini"
	gs "github.com/dmitrijs2005/gophchat/internal/server/grpc"
	"github.com/dmitrijs2005/gophchat/internal/server/httpapi"
	"github.com/dmitrijs2005/gophchat/internal/server/pricing"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/go-redis/redis/v8"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *httpapi.HTTPServer
	grpcServer  *gs.GRPCServer
	redis       *redis.Client
}

func NewApp(cfg *config.Config) (*App, error) {
	return newApp(context.Background(), cfg, logging.NewJSONLogger(os.Stdout, slog.LevelInfo))
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	calc, err := pricing.NewCalculator(cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	normalizer, err := conversation.New(cfg.HistoryPolicy)
	if err != nil {
		return nil, err
	}

	m, err := newRepositoryManager(cfg)
	if err != nil {
		return nil, err
	}

	var store services.ArchiveStore
	if cfg.S3Bucket != "" {
		s3store, err := archive.NewS3Store(ctx, archive.Settings{
			User:     cfg.S3RootUser,
			Password: cfg.S3RootPassword,
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		store = s3store
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn(ctx, "GEMINI_API_KEY is not set, chat requests will fail")
	}
	client, err := gemini.NewClient(ctx, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.TokenValidityDuration)

	app := &App{config: cfg, logger: logger, repomanager: m}
	limiter := app.newLimiter()

	handler := httpapi.NewHandler(
		services.NewAccountService(m, tokens, logger),
		services.NewSessionService(m, store, logger),
		services.NewChatService(m, client, client, normalizer, calc, logger),
		logger,
	)

	app.httpServer = httpapi.NewHTTPServer(cfg.EndpointAddrHTTP, httpapi.NewRouter(handler, tokens, limiter, logger), logger)
	app.grpcServer = gs.NewGRPCServer(cfg.EndpointAddrGRPC, logger, m)

	return app, nil
}

func newRepositoryManager(cfg *config.Config) (repomanager.RepositoryManager, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		return repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN), nil
	case config.StorageMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func (app *App) newLimiter() httpapi.Limiter {
	if app.config.RateLimitQPS <= 0 {
		return nil
	}
	if app.config.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
		return httpapi.NewRedisLimiter(app.redis, app.config.RateLimitQPS)
	}
	return httpapi.NewLocalLimiter(app.config.RateLimitQPS)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, name+" server failed", "error", err.Error())
		cancelFunc()
	}
}

// Run opens storage, serves HTTP and gRPC until a signal arrives or either
// server fails, then closes storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend, "model", app.config.GeminiModel)

	if err := app.repomanager.Open(ctx); err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer func() {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Error(ctx, "closing storage", "error", err.Error())
		}
		if app.redis != nil {
			_ = app.redis.Close()
		}
	}()

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startServer(ctx, cancelFunc, "HTTP", app.httpServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.startServer(ctx, cancelFunc, "gRPC", app.grpcServer.Run)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")

	return nil
}
