package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/target/dns-manager-ui/config"
	"github.com/target/dns-manager-ui/internal/adapters/localauth"
	"github.com/target/dns-manager-ui/internal/data"
	"github.com/target/dns-manager-ui/internal/observability/statsd"
	"github.com/target/dns-manager-ui/internal/service"
	"golang.org/x/sync/errgroup"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth *service.AuthService
	// Users is nil unless AUTH_MODE=password.
	Users         *service.UserService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Close releases the metrics socket.
func (o ObservabilityContainer) Close() error {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB // nil unless the auth mode reads local users
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures the statsd sink when metrics are enabled.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// NewServices wires the account store, metrics and the auth service for the configured mode.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps require an AppConfig")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, deps.Config.Observability)
	container := ServiceContainer{Observability: obs}

	authCfg := AuthConfig{
		Auth:        deps.Config.Auth,
		RedisClient: deps.RedisClient,
		KeyPrefix:   deps.Config.Redis.KeyPrefix,
		Logger:      logger,
	}
	if obs.MetricsSink != nil {
		authCfg.Metrics = obs.MetricsSink
	}

	if deps.DB != nil {
		repo := data.NewUserRepo(deps.DB)
		authCfg.Users = repo
		container.Users = service.NewUserService(service.UserServiceOptions{
			Repo:   repo,
			Hasher: localauth.HashPassword,
			Logger: logger,
		})
	}

	auth, err := BuildAuthService(ctx, authCfg)
	if err != nil {
		if closeErr := obs.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close metrics: %w", closeErr))
		}
		return ServiceContainer{}, err
	}
	container.Auth = auth
	return container, nil
}

// ServiceOrchestrationConfig groups what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown serves HTTP until SIGINT/SIGTERM or a fatal server error.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return serveHTTP(gctx, server, logger)
	})

	err := g.Wait()
	if closeErr := cfg.Services.Observability.Close(); closeErr != nil {
		logger.Warn("close metrics sink", "error", closeErr)
	}
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("services stopped")
	return nil
}
