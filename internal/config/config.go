package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SHOP_"

// DevelopmentSecret is the signing secret used when none is configured. It is rejected in production.
const DevelopmentSecret = "change-me"

// Config holds application level configuration.
type Config struct {
	AppEnv   string `koanf:"app_env"`
	HTTPAddr string `koanf:"http_addr"`

	DBDriver       string        `koanf:"db_driver"`
	DatabaseDSN    string        `koanf:"database_dsn"`
	DBRetries      uint64        `koanf:"db_connect_retries"`
	DBRetryBackoff time.Duration `koanf:"db_retry_backoff"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	JWTSecret       string        `koanf:"jwt_secret"`
	JWTAlgorithm    string        `koanf:"jwt_algorithm"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`
	ResetTokenTTL   time.Duration `koanf:"reset_token_ttl"`
	BcryptCost      int           `koanf:"bcrypt_cost"`

	PublicBaseURL string `koanf:"public_base_url"`
	SMTPHost      string `koanf:"smtp_host"`
	SMTPPort      int    `koanf:"smtp_port"`
	SMTPUsername  string `koanf:"smtp_username"`
	SMTPPassword  string `koanf:"smtp_password"`
	MailFrom      string `koanf:"mail_from"`

	LogFormat string `koanf:"log_format"`
	LogLevel  string `koanf:"log_level"`

	UserCacheTTL            time.Duration `koanf:"user_cache_ttl"`
	SigninRateLimit         int           `koanf:"signin_rate_limit"`
	ForgotPasswordRateLimit int           `koanf:"forgot_password_rate_limit"`
	RateLimitWindow         time.Duration `koanf:"rate_limit_window"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		AppEnv:                  "development",
		HTTPAddr:                ":8000",
		DBDriver:                "mysql",
		DatabaseDSN:             "user:password@tcp(localhost:3306)/shop?charset=utf8mb4&parseTime=True&loc=UTC",
		DBRetries:               5,
		DBRetryBackoff:          500 * time.Millisecond,
		RedisAddr:               "",
		JWTSecret:               DevelopmentSecret,
		JWTAlgorithm:            "HS256",
		AccessTokenTTL:          30 * time.Minute,
		RefreshTokenTTL:         7 * 24 * time.Hour,
		ResetTokenTTL:           30 * time.Minute,
		BcryptCost:              10,
		PublicBaseURL:           "http://localhost:8000",
		SMTPPort:                587,
		MailFrom:                "no-reply@localhost",
		LogFormat:               "json",
		LogLevel:                "info",
		UserCacheTTL:            time.Minute,
		SigninRateLimit:         10,
		ForgotPasswordRateLimit: 5,
		RateLimitWindow:         time.Minute,
	}
}

// Load builds Config from defaults, an optional YAML file, SHOP_* environment
// variables and finally any command-line flags that were explicitly set.
// Flag names use dashes for the underscores of the config keys.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	if c.IsProduction() && c.JWTSecret == DevelopmentSecret {
		errs = append(errs, errors.New("jwt_secret must be changed in production"))
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("jwt_algorithm %q is not supported", c.JWTAlgorithm))
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("db_driver %q is not supported", c.DBDriver))
	}
	for name, ttl := range map[string]time.Duration{
		"access_token_ttl":  c.AccessTokenTTL,
		"refresh_token_ttl": c.RefreshTokenTTL,
		"reset_token_ttl":   c.ResetTokenTTL,
		"rate_limit_window": c.RateLimitWindow,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.UserCacheTTL < 0 {
		errs = append(errs, errors.New("user_cache_ttl cannot be negative"))
	}
	if c.PublicBaseURL == "" {
		errs = append(errs, errors.New("public_base_url is required"))
	}
	return errors.Join(errs...)
}
