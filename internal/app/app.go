// Package app wires configuration into the stores, clients and services
// shared by the server, scheduler and CLI processes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segyhp/dialoger-export/internal/config"
	"github.com/segyhp/dialoger-export/internal/handler"
	"github.com/segyhp/dialoger-export/internal/ledger"
	"github.com/segyhp/dialoger-export/internal/mailer"
	"github.com/segyhp/dialoger-export/internal/metrics"
	"github.com/segyhp/dialoger-export/internal/report"
	"github.com/segyhp/dialoger-export/internal/repository"
	"github.com/segyhp/dialoger-export/internal/service"
	"github.com/segyhp/dialoger-export/internal/storage"
	"github.com/segyhp/dialoger-export/internal/xlsx"

	"cloud.google.com/go/firestore"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const ledgerPrefix = "dialoger-export:delivered:"

// App holds the initialized dependencies. Close releases them.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *repository.Store
	Service  *service.ExportService
	Registry *prometheus.Registry

	// Readiness checks by dependency name
	Checks map[string]handler.Pinger

	cleanup []func() error
}

// New connects the configured backend, Redis and mail transport and builds the export service
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Checks:   make(map[string]handler.Pinger),
	}

	var err error
	switch cfg.Database.Backend {
	case config.BackendPostgres:
		err = a.initPostgres()
	case config.BackendFirestore:
		err = a.initFirestore(ctx)
	default:
		err = fmt.Errorf("unsupported backend type: %s", cfg.Database.Backend)
	}
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var claims ledger.Ledger
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.cleanup = append(a.cleanup, client.Close)
		a.Checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		claims = ledger.NewRedisLedger(client, ledgerPrefix, cfg.Scheduler.LedgerTTL)
		logger.Info("Initialized Redis ledger", "addr", cfg.RedisAddr())
	}

	var sender mailer.Sender
	if cfg.MailEnabled() {
		sender = mailer.NewMailerSend(cfg.Mail.APIKey, cfg.Mail.FromEmail, cfg.Mail.FromName, logger)
	} else {
		logger.Warn("MAILERSEND_API_KEY not set, exports can only be downloaded")
	}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	assembler := report.NewAssembler(a.Store.Payments, a.Store.Users, a.Store.Locations, cfg.ReportLocation())
	a.Service = service.NewExportService(
		assembler,
		xlsx.NewRenderer(),
		sender,
		a.Store.Config,
		claims,
		metrics.New(a.Registry),
		logger,
		cfg,
	)

	return a, nil
}

func (a *App) initPostgres() error {
	cfg := a.Config

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.cleanup = append(a.cleanup, db.Close)

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if cfg.Database.AutoMigrate {
		if err := storage.RunMigrations(db.DB); err != nil {
			return err
		}
		a.Logger.Info("Applied database migrations")
	}

	a.Store = repository.NewPostgresStore(db)
	a.Checks["database"] = handler.PingerFunc(db.PingContext)
	a.Logger.Info("Initialized PostgreSQL backend",
		"max_open_conns", cfg.Database.MaxOpenConns)

	return nil
}

func (a *App) initFirestore(ctx context.Context) error {
	client, err := firestore.NewClient(ctx, a.Config.Firestore.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to initialize Firestore client: %w", err)
	}
	a.cleanup = append(a.cleanup, client.Close)

	a.Store = repository.NewFirestoreStore(client, a.Logger)
	configs := a.Store.Config
	a.Checks["database"] = handler.PingerFunc(func(ctx context.Context) error {
		_, err := configs.GetExportConfig(ctx)
		if errors.Is(err, repository.ErrExportConfigNotFound) {
			return nil
		}
		return err
	})
	a.Logger.Info("Initialized Firestore backend", "project_id", a.Config.Firestore.ProjectID)

	return nil
}

// Close releases clients in reverse order of creation
func (a *App) Close() error {
	var firstErr error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.cleanup = nil
	return firstErr
}
