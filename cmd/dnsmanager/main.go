// Command dnsmanager serves the DNS management console.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/target/dns-manager-ui/config"
	"github.com/target/dns-manager-ui/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "starting dns manager console", startupAttrs(&cfg)...)

	in, err := connect(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer in.close(ctx, logger)

	if err := in.migrate(ctx, &cfg, logger); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          in.db,
		RedisClient: in.redis,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}

	return bootstrap.RunServicesWithShutdown(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func startupAttrs(cfg *config.AppConfig) []any {
	attrs := []any{"auth_mode", cfg.Auth.Mode, "http_addr", cfg.HTTP.Addr, "dev", cfg.IsDev}
	if cfg.NeedsDatabase() {
		attrs = append(attrs, "db_host", cfg.Postgres.Host, "db_port", cfg.Postgres.Port, "db_name", cfg.Postgres.Name)
	}
	return attrs
}

// infra holds the connections the console owns. db is nil unless
// AUTH_MODE=password.
type infra struct {
	db    *sql.DB
	redis redis.UniversalClient
}

func connect(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*infra, error) {
	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}
	in := &infra{}

	if cfg.NeedsDatabase() {
		db, err := bootstrap.ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		in.db = db
	}

	rc, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		err = fmt.Errorf("connect redis: %w", err)
		if in.db != nil {
			if cerr := in.db.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
			}
		}
		return nil, err
	}
	in.redis = rc
	return in, nil
}

func (in *infra) migrate(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	if in.db == nil {
		return nil
	}
	if !cfg.Postgres.RunMigrationsOnStart {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		return nil
	}
	return bootstrap.RunMigrations(ctx, in.db, logger)
}

func (in *infra) close(ctx context.Context, logger *slog.Logger) {
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			logger.ErrorContext(ctx, "close database failed", "error", err)
		}
	}
	if err := in.redis.Close(); err != nil {
		logger.ErrorContext(ctx, "close redis failed", "error", err)
	}
}
