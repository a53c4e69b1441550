package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segyhp/dialoger-export/internal/app"
	"github.com/segyhp/dialoger-export/internal/config"
	"github.com/segyhp/dialoger-export/internal/handler"
	"github.com/segyhp/dialoger-export/pkg/logger"
)

func main() {
	// .env is optional outside of local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	exportHandler := handler.NewExportHandler(application.Service)
	healthHandler := handler.NewHealthHandler(application.Checks)

	// Setup routes
	metricsHandler := promhttp.HandlerFor(application.Registry, promhttp.HandlerOpts{})
	router := handler.NewRouter(exportHandler, healthHandler, metricsHandler, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server starting", "addr", server.Addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
