// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kraklabs/argos/pkg/anvil"
)

// mountLintRoutes wires lint violation/summary lookups (spec §4.2.2,
// §4.8.3).
func mountLintRoutes(r chi.Router, s *Server) {
	r.Route("/lint", func(r chi.Router) {
		r.Get("/violations", s.handleLintViolations)
		r.Get("/summaries", s.handleLintSummaries)
	})
}

func (s *Server) handleLintViolations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := anvil.LintFilter{
		ExecutionID: q.Get("execution_id"),
		FilePath:    q.Get("file_path"),
		Validator:   q.Get("validator"),
		Severity:    anvil.Severity(q.Get("severity")),
		Space:       anvil.Space(q.Get("space")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	violations, err := s.store.GetLintViolations(r.Context(), filter)
	if err != nil {
		writeStoreError(w, "get_lint_violations", err)
		return
	}
	writeJSON(w, http.StatusOK, violations)
}

func (s *Server) handleLintSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := anvil.LintFilter{
		ExecutionID: q.Get("execution_id"),
		Validator:   q.Get("validator"),
		Space:       anvil.Space(q.Get("space")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	summaries, err := s.store.GetLintSummaries(r.Context(), filter)
	if err != nil {
		writeStoreError(w, "get_lint_summaries", err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
