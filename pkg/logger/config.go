package logger

import "log/slog"

// Config selects the level, output format and optional Sentry fan-out.
type Config struct {
	Level             slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Format            string     `env:"LOG_FORMAT" envDefault:"json"`
	SentryDSN         string     `env:"SENTRY_DSN"`
	SentryEnvironment string     `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}
