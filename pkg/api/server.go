// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/ciprovider"
	"github.com/kraklabs/argos/pkg/ingest"
	"github.com/kraklabs/argos/pkg/rules"
	"github.com/kraklabs/argos/pkg/runner"
)

// Config configures the HTTP service.
type Config struct {
	// AllowedOrigins is the CORS allow-list for the browser UI (spec §6 —
	// the UI is an external consumer). An empty slice allows every origin.
	AllowedOrigins []string
}

// Server wires pkg/anvil, pkg/rules, pkg/ingest, pkg/runner, pkg/stats and
// pkg/ciprovider behind the HTTP/WebSocket surface of spec §4.8. Every
// handler is a thin wrapper over the store and pure analytics; execution
// lifecycle orchestration lives in executor.go.
type Server struct {
	store    *anvil.Store
	engine   *rules.Engine
	pipeline *ingest.Pipeline
	adapter  *runner.Adapter
	ci       *ciprovider.Client // optional: nil when no CI provider is configured
	logger   *slog.Logger

	exec *executor
	hub  *hub
}

// New constructs a Server. logger may be nil, in which case
// slog.Default() is used. ci may be nil when the deployment has no CI
// provider configured; POST /api/ci/runs/sync then returns 501, as does
// GET /api/ci/jobs/{jobID}/log when no log is stored for the job. The
// other CI endpoints read only the store and keep working.
func New(store *anvil.Store, ci *ciprovider.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	apiMetrics.init()

	s := &Server{
		store:    store,
		engine:   rules.New(store, logger),
		pipeline: ingest.New(store, logger),
		adapter:  runner.New(logger),
		ci:       ci,
		logger:   logger,
		hub:      newHub(),
	}
	s.exec = newExecutor(s, logger)
	return s
}

// Router builds the chi router for the service.
func (s *Server) Router(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(httpMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsOrAll(cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		mountExecutionRoutes(r, s)
		mountRuleRoutes(r, s)
		mountStatsRoutes(r, s)
		mountLintRoutes(r, s)
		mountCoverageRoutes(r, s)
		mountCIRoutes(r, s)
	})

	r.Get("/ws/{executionID}", s.handleWebSocket)

	return r
}

func originsOrAll(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// healthResponse is spec §6.2's health envelope.
type healthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schema_version"`
	WritersQueued int64  `json:"writers_queued"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		SchemaVersion: s.store.SchemaVersion(),
		WritersQueued: s.store.WritersQueued(),
	})
}

// now is the server's clock, held in a variable so it can be replaced; no
// code in this package calls it.
var now = func() time.Time { return time.Now().UTC() }
