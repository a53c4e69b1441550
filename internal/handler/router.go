package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/segyhp/dialoger-export/pkg/response"
)

// NewRouter registers the health, metrics and export routes
func NewRouter(exportHandler *ExportHandler, healthHandler *HealthHandler, metrics http.Handler, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods("GET")
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/exports/download", exportHandler.Download).Methods("POST", "OPTIONS")
	api.HandleFunc("/exports/email", exportHandler.Email).Methods("POST", "OPTIONS")

	return router
}
