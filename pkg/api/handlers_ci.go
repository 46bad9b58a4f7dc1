// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/ciprovider"
	"github.com/kraklabs/argos/pkg/parsers"
)

// mountCIRoutes wires the CI-mirror endpoints of spec §4.7/§4.8.5: list
// stored runs/jobs, pull fresh ones from the configured provider, fetch
// and parse a job's log, and compare a local run against its CI
// counterpart.
func mountCIRoutes(r chi.Router, s *Server) {
	r.Route("/ci", func(r chi.Router) {
		r.Get("/runs", s.handleListCIRuns)
		r.Post("/runs/sync", s.handleSyncCIRuns)
		r.Get("/runs/{runID}/jobs", s.handleListCIJobs)
		r.Get("/jobs/{jobID}/log", s.handleCIJobLog)
		r.Get("/compare/{entityID}", s.handleCompareLocalVsCI)
		r.Get("/platform-failures", s.handlePlatformSpecificFailures)
	})
}

func (s *Server) requireCI(w http.ResponseWriter) *ciprovider.Client {
	if s.ci == nil {
		errorJSON(w, http.StatusNotImplemented, "ci_not_configured", "no CI provider is configured for this deployment")
		return nil
	}
	return s.ci
}

func (s *Server) handleListCIRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := anvil.CIFilter{
		WorkflowName: q.Get("workflow"),
		Branch:       q.Get("branch"),
		Conclusion:   q.Get("conclusion"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	runs, err := s.store.GetCIWorkflowRuns(r.Context(), filter)
	if err != nil {
		writeStoreError(w, "get_ci_workflow_runs", err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleListCIJobs(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	jobs, err := s.store.GetCIWorkflowJobs(r.Context(), runID)
	if err != nil {
		writeStoreError(w, "get_ci_workflow_jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleSyncCIRuns pulls the most recent runs (and their jobs) from the
// configured provider and ingests them, so the store has an up-to-date
// mirror to compare local executions against (spec §4.7).
func (s *Server) handleSyncCIRuns(w http.ResponseWriter, r *http.Request) {
	ci := s.requireCI(w)
	if ci == nil {
		return
	}
	q := r.URL.Query()
	limit := 20
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	runs, err := ci.ListRuns(r.Context(), ciprovider.RunFilter{Workflow: q.Get("workflow"), Branch: q.Get("branch"), Limit: limit})
	if err != nil {
		errorJSON(w, http.StatusBadGateway, "ci_provider_error", err.Error())
		return
	}

	synced := 0
	for _, run := range runs {
		jobs, err := ci.ListJobs(r.Context(), run.RemoteRunID)
		if err != nil {
			errorJSON(w, http.StatusBadGateway, "ci_provider_error", err.Error())
			return
		}
		for i := range jobs {
			if jobs[i].TestResultsJSON != nil {
				continue
			}
			if data, err := ci.FetchJobLog(r.Context(), jobs[i].RemoteJobID); err == nil {
				log := string(data)
				jobs[i].LogContent = &log
			}
		}
		if _, err := s.pipeline.IngestCIRun(r.Context(), run, jobs); err != nil {
			writeStoreError(w, "ingest_ci_run", err)
			return
		}
		synced++
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": synced})
}

// handleCIJobLog fetches and parses a job's log, preferring a log already
// persisted with the job row over a fresh provider round-trip.
func (s *Server) handleCIJobLog(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	var raw string
	runID := r.URL.Query().Get("run_id")
	if runID != "" {
		jobs, err := s.store.GetCIWorkflowJobs(r.Context(), runID)
		if err != nil {
			writeStoreError(w, "get_ci_workflow_jobs", err)
			return
		}
		for _, j := range jobs {
			if j.RemoteJobID == jobID && j.LogContent != nil {
				raw = *j.LogContent
			}
		}
	}

	if raw == "" {
		ci := s.requireCI(w)
		if ci == nil {
			return
		}
		data, err := ci.FetchJobLog(r.Context(), jobID)
		if err != nil {
			errorJSON(w, http.StatusBadGateway, "ci_provider_error", err.Error())
			return
		}
		raw = string(data)
	}

	summary, err := parsers.ParseCILog(raw)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "unparseable_log", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCompareLocalVsCI(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	cmp, err := compareLocalVsCI(r.Context(), s.store, entityID)
	if err != nil {
		writeStoreError(w, "compare_local_vs_ci", err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// handlePlatformSpecificFailures lists entities whose most recent CI
// outcome is FAILED on some platform while the most recent local outcome
// is PASSED (spec §4.8.2). The candidate entity set is caller-supplied
// since anvil keeps no single "all test entities" index.
func (s *Server) handlePlatformSpecificFailures(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("entity_ids")
	if raw == "" {
		errorJSON(w, http.StatusBadRequest, "bad_request", "entity_ids (comma-separated) is required")
		return
	}
	entityIDs := strings.Split(raw, ",")

	failures, err := platformSpecificFailures(r.Context(), s.store, entityIDs)
	if err != nil {
		writeStoreError(w, "platform_specific_failures", err)
		return
	}
	writeJSON(w, http.StatusOK, failures)
}
