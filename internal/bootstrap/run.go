package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/srijeethT/cytomind/config"
)

// ServiceOrchestrationConfig contains dependencies for running services with
// graceful shutdown.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    *ServiceContainer
	DB          *sql.DB
	RedisClient *redis.Client
	Logger      *slog.Logger
}

// RunServicesWithShutdown starts the enabled services and blocks until a
// termination signal. The signal cancels the runner's context and drains the
// HTTP server concurrently; both are awaited before returning, so no job is
// abandoned mid-flight.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	if cfg.Config.IsHTTPServerEnabled() {
		server = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	g, runCtx := errgroup.WithContext(ctx)
	if cfg.Config.IsRunnerEnabled() {
		logger.Info("starting analysis runner", "concurrency", cfg.Config.Runner.Concurrency)
		g.Go(func() error {
			return cfg.Services.Runner.Start(runCtx)
		})
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownErr := ShutdownHTTPServer(ShutdownConfig{
		Context:  context.Background(),
		Server:   server,
		Notifier: cfg.Services.Notifier,
		Logger:   logger,
	})
	if shutdownErr != nil {
		logger.Error("HTTP server shutdown", "error", shutdownErr)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return shutdownErr
}
