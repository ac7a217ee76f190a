package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/dns-manager-ui/config"
	"github.com/target/dns-manager-ui/internal/adapters/localauth"
	"github.com/target/dns-manager-ui/internal/bootstrap"
	"github.com/target/dns-manager-ui/internal/data"
	"github.com/target/dns-manager-ui/internal/service"
)

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 30 * time.Second
)

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdin  io.Reader
	Stdout io.Writer

	// loadConfig is swapped in tests.
	loadConfig func() (config.AppConfig, error)
}

func main() {
	logger := bootstrap.InitLogger()
	cmdCtx := &commandContext{
		Ctx:        context.Background(),
		Logger:     logger,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		loadConfig: bootstrap.LoadConfig,
	}

	if err := newRootCommand(cmdCtx).Execute(); err != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCommand(cmdCtx *commandContext) *cobra.Command {
	root := &cobra.Command{
		Use:           "dnsmanager-admin",
		Short:         "Operational tasks for the DNS Manager console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cmdCtx.Config = cfg
			cmd.SetOut(cmdCtx.Stdout)
			return nil
		},
	}
	root.SetIn(cmdCtx.Stdin)
	root.SetOut(cmdCtx.Stdout)

	root.AddCommand(newMigrateCommand(cmdCtx), newUserCommand(cmdCtx))
	return root
}

func newMigrateCommand(cmdCtx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMigrations(cmdCtx, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	return cmd
}

func runMigrations(cmdCtx *commandContext, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := openDB(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func openDB(ctx context.Context, cmdCtx *commandContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

func closeDB(cmdCtx *commandContext, db *sql.DB) {
	if closeErr := db.Close(); closeErr != nil {
		cmdCtx.Logger.Warn("db close failed", "error", closeErr)
	}
}

// withUserService opens the database, runs fn with a UserService, and closes the pool.
func withUserService(cmdCtx *commandContext, fn func(ctx context.Context, svc *service.UserService) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	db, err := openDB(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	svc := service.NewUserService(service.UserServiceOptions{
		Repo:   data.NewUserRepo(db),
		Hasher: localauth.HashPassword,
		Logger: cmdCtx.Logger,
	})
	return fn(ctx, svc)
}
