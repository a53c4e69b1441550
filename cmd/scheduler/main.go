package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/segyhp/dialoger-export/internal/app"
	"github.com/segyhp/dialoger-export/internal/config"
	"github.com/segyhp/dialoger-export/internal/service"
	customError "github.com/segyhp/dialoger-export/pkg/errors"
	"github.com/segyhp/dialoger-export/pkg/logger"
)

// jobTimeout bounds one daily export including email delivery
const jobTimeout = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("Starting export scheduler...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if err := setupCronJobs(ctx, c, cfg, application.Service, log); err != nil {
		log.Error("Error scheduling daily export job", "error", err)
		os.Exit(1)
	}

	// Start the scheduler
	c.Start()
	log.Info("Scheduler started successfully",
		"spec", cfg.Scheduler.Spec,
		"timezone", cfg.Scheduler.Timezone)

	<-ctx.Done()

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, svc *service.ExportService, log *slog.Logger) error {
	// Daily export of yesterday's payments
	_, err := c.AddFunc(cfg.Scheduler.Spec, func() {
		runDailyExport(ctx, svc, log)
	})
	return err
}

func runDailyExport(ctx context.Context, svc *service.ExportService, log *slog.Logger) {
	log.Info("Running daily export job...")

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	res, err := svc.RunDailyExport(jobCtx, time.Now())
	switch {
	case errors.Is(err, customError.ErrAlreadyDelivered):
		log.Info("Daily export already delivered, skipping", "error", err)
	case err != nil:
		log.Error("Daily export failed", "code", customError.Code(err), "error", err)
	default:
		log.Info("Daily export delivered",
			"run_id", res.RunID,
			"recipient", res.Recipient,
			"filename", res.Filename,
			"rows", res.Rows)
	}
}
