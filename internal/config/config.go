// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package config defines the immutable configuration passed into the
// workflows at construction time. Values are resolved from CLI flags,
// environment variables and an optional TOML file, in that order.
package config

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	BaseURL  string // base URL used in verification/reset links
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Password PasswordConfig
	Session  SessionConfig
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Addr     string // empty disables Redis-backed rate limiting and reset tokens
	Password string
	DB       int
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	AllowRegistration      bool
	TokenExpiryHours       int // verification token lifetime
	ResetTokenExpiryHours  int // password reset token lifetime
	MaxLoginAttempts       int // failed logins before lockout, 0 disables
	LockoutMinutes         int
	RateLimitMaxAttempts   int // resend/reset requests per window
	RateLimitWindowMinutes int
}

type PasswordConfig struct { //nolint:govet // fieldalignment not critical for config structs
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Secret   string // HMAC signing key for access tokens
	Issuer   string
	TTLHours int
}

// Default returns the configuration used when nothing is overridden.
// Library consumers and tests start from here.
func Default() *Config {
	return &Config{
		BaseURL: "http://localhost:8080",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseConfig{
			DSN: "./data/accounts.db",
		},
		SMTP: SMTPConfig{
			Port: 587,
			TLS:  true,
		},
		Auth: AuthConfig{
			AllowRegistration:      true,
			TokenExpiryHours:       24,
			ResetTokenExpiryHours:  1,
			MaxLoginAttempts:       5,
			LockoutMinutes:         15,
			RateLimitMaxAttempts:   5,
			RateLimitWindowMinutes: 15,
		},
		Password: PasswordConfig{
			MinLength:        8,
			MaxLength:        128,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireDigit:     true,
			RequireSpecial:   true,
		},
		Session: SessionConfig{
			Issuer:   "go-accounts",
			TTLHours: 24,
		},
	}
}

// NewFromCLI builds the configuration from resolved CLI flag values.
func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		BaseURL: cmd.String("base-url"),
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Redis: RedisConfig{
			Addr:     cmd.String("redis-addr"),
			Password: cmd.String("redis-password"),
			DB:       int(cmd.Int("redis-db")),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Auth: AuthConfig{
			AllowRegistration:      cmd.Bool("allow-registration"),
			TokenExpiryHours:       int(cmd.Int("token-expiry-hours")),
			ResetTokenExpiryHours:  int(cmd.Int("reset-token-expiry-hours")),
			MaxLoginAttempts:       int(cmd.Int("max-login-attempts")),
			LockoutMinutes:         int(cmd.Int("lockout-minutes")),
			RateLimitMaxAttempts:   int(cmd.Int("rate-limit-max-attempts")),
			RateLimitWindowMinutes: int(cmd.Int("rate-limit-window-minutes")),
		},
		Password: PasswordConfig{
			MinLength:        int(cmd.Int("password-min-length")),
			MaxLength:        int(cmd.Int("password-max-length")),
			RequireUppercase: cmd.Bool("password-require-uppercase"),
			RequireLowercase: cmd.Bool("password-require-lowercase"),
			RequireDigit:     cmd.Bool("password-require-digit"),
			RequireSpecial:   cmd.Bool("password-require-special"),
		},
		Session: SessionConfig{
			Secret:   cmd.String("session-secret"),
			Issuer:   cmd.String("session-issuer"),
			TTLHours: int(cmd.Int("session-ttl-hours")),
		},
	}
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "base-url",
			Value:   "http://localhost:8080",
			Usage:   "Base URL used in verification and reset links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("base_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/accounts.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis address (empty disables rate limiting and reset tokens)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_ADDR"), toml.TOML("redis.addr", configFile)),
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_PASSWORD"), toml.TOML("redis.password", configFile)),
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Value:   0,
			Usage:   "Redis database number",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_DB"), toml.TOML("redis.db", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "From address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Display name for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		&cli.BoolFlag{
			Name:    "allow-registration",
			Value:   true,
			Usage:   "Allow new account registration",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ALLOW_REGISTRATION"), toml.TOML("auth.allow_registration", configFile)),
		},
		&cli.IntFlag{
			Name:    "token-expiry-hours",
			Value:   24,
			Usage:   "Verification token lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_EXPIRY_HOURS"), toml.TOML("auth.token_expiry_hours", configFile)),
		},
		&cli.IntFlag{
			Name:    "reset-token-expiry-hours",
			Value:   1,
			Usage:   "Password reset token lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RESET_TOKEN_EXPIRY_HOURS"), toml.TOML("auth.reset_token_expiry_hours", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-login-attempts",
			Value:   5,
			Usage:   "Failed logins before lockout (0 disables)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_LOGIN_ATTEMPTS"), toml.TOML("auth.max_login_attempts", configFile)),
		},
		&cli.IntFlag{
			Name:    "lockout-minutes",
			Value:   15,
			Usage:   "Lockout duration in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOCKOUT_MINUTES"), toml.TOML("auth.lockout_minutes", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-max-attempts",
			Value:   5,
			Usage:   "Resend/reset requests allowed per window",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_MAX_ATTEMPTS"), toml.TOML("auth.rate_limit_max_attempts", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-window-minutes",
			Value:   15,
			Usage:   "Rate limit window in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_WINDOW_MINUTES"), toml.TOML("auth.rate_limit_window_minutes", configFile)),
		},
		&cli.IntFlag{
			Name:    "password-min-length",
			Value:   8,
			Usage:   "Minimum password length",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PASSWORD_MIN_LENGTH"), toml.TOML("password.min_length", configFile)),
		},
		&cli.IntFlag{
			Name:    "password-max-length",
			Value:   128,
			Usage:   "Maximum password length",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PASSWORD_MAX_LENGTH"), toml.TOML("password.max_length", configFile)),
		},
		&cli.BoolFlag{
			Name:    "password-require-uppercase",
			Value:   true,
			Usage:   "Require an uppercase letter",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PASSWORD_REQUIRE_UPPERCASE"), toml.TOML("password.require_uppercase", configFile)),
		},
		&cli.BoolFlag{
			Name:    "password-require-lowercase",
			Value:   true,
			Usage:   "Require a lowercase letter",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PASSWORD_REQUIRE_LOWERCASE"), toml.TOML("password.require_lowercase", configFile)),
		},
		&cli.BoolFlag{
			Name:    "password-require-digit",
			Value:   true,
			Usage:   "Require a digit",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PASSWORD_REQUIRE_DIGIT"), toml.TOML("password.require_digit", configFile)),
		},
		&cli.BoolFlag{
			Name:    "password-require-special",
			Value:   true,
			Usage:   "Require a special character",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PASSWORD_REQUIRE_SPECIAL"), toml.TOML("password.require_special", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-secret",
			Usage:   "HMAC signing key for access tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_SECRET"), toml.TOML("session.secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-issuer",
			Value:   "go-accounts",
			Usage:   "Issuer claim for access tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_ISSUER"), toml.TOML("session.issuer", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-ttl-hours",
			Value:   24,
			Usage:   "Access token lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_TTL_HOURS"), toml.TOML("session.ttl_hours", configFile)),
		},
	}
}
