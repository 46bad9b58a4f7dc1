// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/parsers"
)

// mountCoverageRoutes wires coverage history/summary lookups and the
// baseline-regression comparison (spec §4.2.3, §4.8.3).
func mountCoverageRoutes(r chi.Router, s *Server) {
	r.Route("/coverage", func(r chi.Router) {
		r.Get("/history", s.handleCoverageHistory)
		r.Get("/summary/{executionID}", s.handleCoverageSummary)
		r.Get("/regressions", s.handleCoverageRegressions)
	})
}

func (s *Server) handleCoverageHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := anvil.CoverageFilter{
		ExecutionID: q.Get("execution_id"),
		FilePath:    q.Get("file_path"),
		Space:       anvil.Space(q.Get("space")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	history, err := s.store.GetCoverageHistory(r.Context(), filter)
	if err != nil {
		writeStoreError(w, "get_coverage_history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleCoverageSummary(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")
	sum, err := s.store.GetCoverageSummary(r.Context(), executionID)
	if err != nil {
		writeStoreError(w, "get_coverage_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleCoverageRegressions compares two previously-ingested executions'
// per-file coverage and reports files that dropped by more than the
// threshold (spec §4.2.3: "coverage regressions are computed against a
// caller-supplied baseline, not against anvil history automatically").
func (s *Server) handleCoverageRegressions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	currentID := q.Get("current")
	baselineID := q.Get("baseline")
	if currentID == "" || baselineID == "" {
		errorJSON(w, http.StatusBadRequest, "bad_request", "current and baseline execution ids are required")
		return
	}
	threshold := 1.0
	if v := q.Get("threshold"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = f
		}
	}

	current, err := s.store.GetCoverageHistory(r.Context(), anvil.CoverageFilter{ExecutionID: currentID})
	if err != nil {
		writeStoreError(w, "get_coverage_history", err)
		return
	}
	baseline, err := s.store.GetCoverageHistory(r.Context(), anvil.CoverageFilter{ExecutionID: baselineID})
	if err != nil {
		writeStoreError(w, "get_coverage_history", err)
		return
	}

	regressions := parsers.Regressions(toCoverageData(current), toCoverageData(baseline), threshold)
	writeJSON(w, http.StatusOK, regressions)
}

func toCoverageData(rows []anvil.CoverageHistory) *parsers.CoverageData {
	data := &parsers.CoverageData{FilesAnalyzed: len(rows)}
	var totalStatements, coveredStatements int
	for _, row := range rows {
		data.PerFile = append(data.PerFile, parsers.FileCoverage{
			FilePath:           row.FilePath,
			TotalStatements:    row.TotalStatements,
			CoveredStatements:  row.CoveredStatements,
			CoveragePercentage: row.CoveragePercentage,
			MissingLines:       row.MissingLines,
		})
		totalStatements += row.TotalStatements
		coveredStatements += row.CoveredStatements
	}
	data.TotalStatements = totalStatements
	data.CoveredStatements = coveredStatements
	if totalStatements > 0 {
		data.TotalCoverage = 100 * float64(coveredStatements) / float64(totalStatements)
	}
	return data
}
