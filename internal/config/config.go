// Package config loads the process configuration from the environment,
// optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/internal/ordermail"
	"github.com/evolutio/automated-orders/pkg/db"
	"github.com/evolutio/automated-orders/pkg/logger"
	"github.com/evolutio/automated-orders/pkg/mailer"
	"github.com/evolutio/automated-orders/pkg/mailer/resend"
	"github.com/evolutio/automated-orders/pkg/redis"
	"github.com/evolutio/automated-orders/pkg/storage"
)

var ErrLoad = errors.New("config: failed to load")

type HTTP struct {
	Address         string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CookieSecret    string        `env:"COOKIE_SECRET,required"`
	SecureCookies   bool          `env:"COOKIE_SECURE" envDefault:"true"`
}

type Jobs struct {
	Workers int `env:"JOB_WORKERS" envDefault:"4"`
	// Worker false runs the HTTP side only.
	Worker bool `env:"JOB_WORKER" envDefault:"true"`
}

type Auth struct {
	Secret string `env:"AUTH_JWT_SECRET,required"`
	Issuer string `env:"AUTH_JWT_ISSUER"`
}

type Orders struct {
	bulkorder.Defaults
	// FanOut turns a recipient's number into that many orders.
	FanOut   bool          `env:"ORDER_FAN_OUT" envDefault:"false"`
	CacheTTL time.Duration `env:"ORDER_SCOPE_CACHE_TTL" envDefault:"1m"`
	Channel  string        `env:"ORDER_NOTIFY_CHANNEL" envDefault:"automated_orders"`
}

type Config struct {
	Log     logger.Config
	HTTP    HTTP
	DB      db.Config
	Jobs    Jobs
	Redis   redis.Config
	Storage storage.Config
	Mailer  mailer.Config
	Resend  resend.Config
	Shop    ordermail.Config
	Auth    Auth
	Orders  Orders
}

// Load reads files (default .env) when they exist, then the environment.
// Variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoad, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Join(ErrLoad, err)
	}
	return &cfg, nil
}
