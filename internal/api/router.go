package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chessgraph/chessgraph/internal/api/handler"
	"github.com/chessgraph/chessgraph/internal/api/middleware"
	"github.com/chessgraph/chessgraph/internal/services/lifecycle"
	"github.com/chessgraph/chessgraph/internal/store"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Manager *lifecycle.Manager
	Store   store.Store
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	graphHandler := handler.NewGraphHandler(cfg.Manager, cfg.Store)
	ingestHandler := handler.NewIngestHandler(cfg.Manager)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Graph queries
	api.HandleFunc("/path/{username}", graphHandler.GetPath).Methods(http.MethodGet)
	api.HandleFunc("/players/{username}", graphHandler.GetPlayer).Methods(http.MethodGet)
	api.HandleFunc("/metadata", graphHandler.GetMetadata).Methods(http.MethodGet)

	// Ingestion
	api.HandleFunc("/ingest/historical", ingestHandler.Historical).Methods(http.MethodPost)
	api.HandleFunc("/ingest/incremental", ingestHandler.Incremental).Methods(http.MethodPost)

	// Storage maintenance
	api.HandleFunc("/storage/usage", ingestHandler.Usage).Methods(http.MethodGet)
	api.HandleFunc("/storage/cleanup", ingestHandler.Cleanup).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
