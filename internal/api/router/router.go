package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/vendorleads/lead-pipeline/internal/http/middleware"
	"github.com/vendorleads/lead-pipeline/internal/ingest"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	IngestHandler  *ingest.Handler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Vendor ingress. OPTIONS is routed to the same handler so preflight
	// carries the CORS contract without a separate middleware layer.
	if cfg.IngestHandler != nil {
		r.Post("/leads", cfg.IngestHandler.SubmitLeads)
		r.Put("/leads", cfg.IngestHandler.SubmitLeads)
		r.Patch("/leads", cfg.IngestHandler.SubmitLeads)
		r.Options("/leads", cfg.IngestHandler.SubmitLeads)
	}

	return r
}
