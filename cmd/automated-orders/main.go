package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/evolutio/automated-orders/internal"
	"github.com/evolutio/automated-orders/internal/auth"
	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/internal/config"
	"github.com/evolutio/automated-orders/internal/handlers"
	"github.com/evolutio/automated-orders/internal/invoice"
	"github.com/evolutio/automated-orders/internal/notify"
	"github.com/evolutio/automated-orders/internal/ordermail"
	"github.com/evolutio/automated-orders/internal/repository"
	"github.com/evolutio/automated-orders/internal/views"
	"github.com/evolutio/automated-orders/middlewares"
	"github.com/evolutio/automated-orders/pkg/cache"
	"github.com/evolutio/automated-orders/pkg/cookie"
	"github.com/evolutio/automated-orders/pkg/db"
	"github.com/evolutio/automated-orders/pkg/health"
	"github.com/evolutio/automated-orders/pkg/i18n"
	"github.com/evolutio/automated-orders/pkg/job"
	"github.com/evolutio/automated-orders/pkg/logger"
	"github.com/evolutio/automated-orders/pkg/mailer"
	"github.com/evolutio/automated-orders/pkg/mailer/resend"
	"github.com/evolutio/automated-orders/pkg/redis"
	"github.com/evolutio/automated-orders/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log, os.Stdout, middlewares.RequestIDExtractor(), job.IDExtractor())
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx, pool, repository.Migrations(), cfg.DB.MigrationsTable, log); err != nil {
		return err
	}
	if err := job.Migrate(ctx, pool, log); err != nil {
		return err
	}

	sqlDB := db.OpenSQL(pool)
	repo := repository.New(sqlDB)

	checks := health.Checks{"postgres": db.Healthcheck(pool)}
	shutdown := []internal.Hook{db.Shutdown(pool), func(context.Context) error { return sqlDB.Close() }}

	// Redis backs the scope cache and the signal channel when configured.
	signals := []notify.Handler{notify.Log(log)}
	var scopes cache.Cache[bulkorder.Event]
	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		scopes = cache.NewRedis[bulkorder.Event](client, "automated_orders:scope")
		signals = append(signals, notify.Publish(client, cfg.Orders.Channel))
		checks["redis"] = redis.Healthcheck(client)
		shutdown = append(shutdown, redis.Shutdown(client))
	} else {
		scopes = cache.NewMemory[bulkorder.Event](time.Minute)
	}
	shutdown = append(shutdown, func(context.Context) error { return scopes.Close() })

	invoiceOpts := []invoice.Option{invoice.WithLogger(log)}
	if cfg.Storage.Enabled() {
		files, err := storage.New(cfg.Storage)
		if err != nil {
			return err
		}
		invoiceOpts = append(invoiceOpts, invoice.WithStorage(files))
	}

	var sender mailer.Sender = mailer.NewLogSender(log)
	if cfg.Resend.APIKey != "" {
		sender = resend.New(cfg.Resend)
	}
	mail := mailer.New(sender, mailer.NewRenderer(ordermail.Templates(), ""), cfg.Mailer)

	processor := bulkorder.NewProcessor(bulkorder.Deps{
		Directory: repository.NewCachedDirectory(repo, scopes, cfg.Orders.CacheTTL),
		Orders:    repo,
		Audit:     repo,
		Notifier:  notify.NewDispatcher(signals...),
		Invoices:  invoice.New(repo, invoiceOpts...),
		Mail:      ordermail.New(mail, cfg.Shop),
	},
		bulkorder.WithLogger(log),
		bulkorder.WithDefaults(cfg.Orders.Defaults),
		bulkorder.WithFanOut(cfg.Orders.FanOut),
	)

	jobOpts := []job.Option{
		job.WithTask[bulkorder.Request](bulkorder.NewTask(processor)),
		job.WithMaxWorkers(cfg.Jobs.Workers),
		job.WithLogger(log),
	}
	if !cfg.Jobs.Worker {
		jobOpts = append(jobOpts, job.InsertOnly())
	}
	jobs, err := job.NewManager(pool, jobOpts...)
	if err != nil {
		return err
	}
	checks["jobs"] = job.Healthcheck(jobs)
	shutdown = append(shutdown, jobs.Shutdown())

	tokens, err := auth.NewTokens(cfg.Auth.Secret, auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return err
	}
	jar, err := cookie.New(cfg.HTTP.CookieSecret,
		cookie.WithSecure(cfg.HTTP.SecureCookies),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
	if err != nil {
		return err
	}
	catalog, err := i18n.New(i18n.WithDefaultLanguage("en"), i18n.WithYAMLDir(views.Locales()))
	if err != nil {
		return err
	}

	app := internal.New(
		internal.WithLogger(log),
		internal.WithCookieJar(jar),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.I18n(catalog),
		),
		internal.WithHandlers(handlers.NewBulkOrders(repo, repo, jobs, tokens)),
		internal.WithHealthChecks(checks, health.WithLogger(log)),
	)

	log.Info("starting", slog.Bool("worker", cfg.Jobs.Worker), slog.Bool("fan_out", cfg.Orders.FanOut))
	return app.Run(cfg.HTTP.Address,
		internal.OnStartup(jobs.StartFunc()),
		internal.OnShutdown(shutdown...),
		internal.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
}
