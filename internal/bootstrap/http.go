package bootstrap

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/dns-manager-ui/config"
	httpx "github.com/target/dns-manager-ui/internal/http"
)

const (
	defaultListenAddr = ":8080"
	shutdownTimeout   = 10 * time.Second
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the console's HTTP server without starting it.
// A nil cfg yields a nil server.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cmp.Or(cfg.Logger, slog.Default())
	appCfg := cmp.Or(cfg.Config, &config.AppConfig{})

	return &http.Server{
		Addr:              cmp.Or(appCfg.HTTP.Addr, defaultListenAddr),
		Handler:           consoleHandler(appCfg, cfg.Services, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}

// consoleHandler wraps the router as Recover(Logging(Compression(router))), so
// logged byte counts are post-compression.
func consoleHandler(appCfg *config.AppConfig, svc ServiceContainer, logger *slog.Logger) http.Handler {
	deps := httpx.RouterServices{
		Auth:              svc.Auth,
		CookieDomain:      appCfg.HTTP.CookieDomain,
		ContactURL:        appCfg.HTTP.ContactURL,
		ForgotPasswordURL: appCfg.HTTP.ForgotPasswordURL,
		LogoutURL:         appCfg.Auth.OAuth.LogoutURL,
		IsDev:             appCfg.IsDev,
		Logger:            logger,
	}
	// Keep a nil *UserService from turning into a non-nil interface.
	if svc.Users != nil {
		deps.Users = svc.Users
	}

	h := httpx.NewRouter(deps)
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel})(h)
	}
	return httpx.Recover(logger)(httpx.Logging(logger)(h))
}

// serveHTTP listens until ctx is done, then drains the server.
func serveHTTP(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		listenErr <- server.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.WithoutCancel(ctx),
			Server:  server,
			Logger:  logger,
		})
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gives in-flight requests shutdownTimeout to finish.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cmp.Or(cfg.Logger, slog.Default())
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, shutdownTimeout)
	defer cancel()

	logger.Info("draining HTTP server", "timeout", shutdownTimeout)
	if err := cfg.Server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
