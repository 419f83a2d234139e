package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/i-yashvi/E-Commerce-Backend/internal/auth"
	"github.com/i-yashvi/E-Commerce-Backend/internal/cache"
	"github.com/i-yashvi/E-Commerce-Backend/internal/handler"
	"github.com/i-yashvi/E-Commerce-Backend/internal/metrics"
	"github.com/i-yashvi/E-Commerce-Backend/internal/ratelimit"
	"github.com/i-yashvi/E-Commerce-Backend/internal/router"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. The database schema is migrated on startup.
The server stops gracefully on SIGINT or SIGTERM.`,
		RunE: runServe,
	}

	flags := cmd.Flags()
	flags.String("http-addr", "", "listen address (default :8000)")
	flags.String("app-env", "", "environment name; \"production\" hides reset tokens from responses")
	flags.String("db-driver", "", "database driver: mysql, postgres or sqlite")
	flags.String("database-dsn", "", "database connection string")
	flags.String("redis-addr", "", "redis address for the user cache and rate limiter")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: json or text")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(gormDB)

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "redis unreachable, cache reads will miss", "addr", cfg.RedisAddr, "error", err)
	}

	m := metrics.New()
	deps, err := newStack(cfg, gormDB, cacheClient, m, logger)
	if err != nil {
		return err
	}

	var limiter ratelimit.Limiter
	if cacheClient.Enabled() {
		limiter = ratelimit.NewRedisLimiter(cacheClient, logger)
	} else {
		limiter = ratelimit.NewMemoryLimiter()
	}
	defer func() { _ = limiter.Close() }()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, router.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Guard:       auth.NewGuard(deps.tokens, deps.store.Users()),
		AuthHandler: handler.NewAuthHandler(deps.auth, !cfg.IsProduction(), logger),
		UserHandler: handler.NewUserHandler(deps.users),
		Limiter:     limiter,
		Metrics:     m,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv, "db_driver", cfg.DBDriver)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return oops.Code("SERVER_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}
