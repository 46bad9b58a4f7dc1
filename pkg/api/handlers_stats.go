// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/stats"
)

// mountStatsRoutes wires per-entity statistics and the flaky-entity view
// (spec §4.3, §4.8.3).
func mountStatsRoutes(r chi.Router, s *Server) {
	r.Route("/stats", func(r chi.Router) {
		r.Get("/entities", s.handleListEntityStatistics)
		r.Get("/entities/{entityID}", s.handleGetEntityStatistics)
		r.Get("/flaky", s.handleFlaky)
	})
}

func (s *Server) handleListEntityStatistics(w http.ResponseWriter, r *http.Request) {
	entityType := anvil.EntityType(r.URL.Query().Get("entity_type"))
	if entityType == "" {
		entityType = anvil.EntityTest
	}
	st, err := s.store.ListEntityStatistics(r.Context(), entityType)
	if err != nil {
		writeStoreError(w, "list_entity_statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetEntityStatistics(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	st, err := s.store.GetEntityStatistics(r.Context(), entityID)
	if err != nil {
		writeStoreError(w, "get_entity_statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleFlaky(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityType := anvil.EntityType(q.Get("entity_type"))
	if entityType == "" {
		entityType = anvil.EntityTest
	}
	threshold := 0.05
	if v := q.Get("threshold"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = f
		}
	}
	window := 50
	if v := q.Get("window"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			window = n
		}
	}
	limit := 20
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	flaky, err := stats.Flaky(r.Context(), s.store, entityType, threshold, window, limit)
	if err != nil {
		writeStoreError(w, "flaky", err)
		return
	}
	writeJSON(w, http.StatusOK, flaky)
}
