package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/i-yashvi/E-Commerce-Backend/internal/auth"
	"github.com/i-yashvi/E-Commerce-Backend/internal/cache"
	"github.com/i-yashvi/E-Commerce-Backend/internal/config"
	"github.com/i-yashvi/E-Commerce-Backend/internal/db"
	"github.com/i-yashvi/E-Commerce-Backend/internal/email"
	"github.com/i-yashvi/E-Commerce-Backend/internal/logging"
	"github.com/i-yashvi/E-Commerce-Backend/internal/metrics"
	"github.com/i-yashvi/E-Commerce-Backend/internal/repository"
	"github.com/i-yashvi/E-Commerce-Backend/internal/service"
)

// loadConfig reads the configuration for cmd and builds the process logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").With("path", configFile).Wrap(err)
	}
	logger := logging.Setup("shopd", version, cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openDB connects to the configured database and migrates it.
func openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := db.Open(ctx, db.Options{
		Driver:         cfg.DBDriver,
		DSN:            cfg.DatabaseDSN,
		ConnectRetries: cfg.DBRetries,
		RetryBase:      cfg.DBRetryBackoff,
		Logger:         logger,
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.DBDriver).Wrap(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, oops.Code("MIGRATION_FAILED").Wrap(err)
	}
	return gormDB, nil
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// stack is the wired auth core shared by the server and the maintenance commands.
type stack struct {
	store  repository.Store
	cache  *cache.Client
	users  service.UserService
	tokens *auth.TokenService
	auth   service.AuthService
}

func newStack(cfg *config.Config, gormDB *gorm.DB, cacheClient *cache.Client, m *metrics.Metrics, logger *slog.Logger) (*stack, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		Algorithm:  cfg.JWTAlgorithm,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	store := repository.NewStore(gormDB)
	users := service.NewUserService(store.Users(), cacheClient, cfg.UserCacheTTL)
	authSvc := service.NewAuthService(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens, mailer, users, service.AuthOptions{
		ResetTokenTTL: cfg.ResetTokenTTL,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
		Events:        m,
	})

	return &stack{store: store, cache: cacheClient, users: users, tokens: tokens, auth: authSvc}, nil
}

// newMailer returns an SMTP sender, or a sender that only logs when no SMTP host is configured.
func newMailer(cfg *config.Config, logger *slog.Logger) (email.Sender, error) {
	if cfg.SMTPHost == "" {
		logger.Warn("smtp_host not set, reset emails will only be logged")
		return email.NewLogSender(logger), nil
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}
