// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/rules"
)

// mountExecutionRoutes wires execution history, rule-driven start and
// cancel (spec §4.8.1).
func mountExecutionRoutes(r chi.Router, s *Server) {
	r.Route("/executions", func(r chi.Router) {
		r.Get("/", s.handleListExecutions)
		r.Post("/", s.handleStartExecution)
		r.Post("/{executionID}/cancel", s.handleCancelExecution)
	})
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := anvil.HistoryFilter{
		EntityID:    q.Get("entity_id"),
		EntityType:  anvil.EntityType(q.Get("entity_type")),
		ExecutionID: q.Get("execution_id"),
		Space:       anvil.Space(q.Get("space")),
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}

	history, err := s.store.GetExecutionHistory(r.Context(), filter)
	if err != nil {
		writeStoreError(w, "get_execution_history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type startExecutionRequest struct {
	Rule         string   `json:"rule"`
	ChangedFiles []string `json:"changed_files,omitempty"`
	Marker       string   `json:"marker,omitempty"`
	Pattern      string   `json:"pattern,omitempty"`
}

type startExecutionResponse struct {
	ExecutionID  string `json:"execution_id"`
	WebSocketURL string `json:"ws_url"`
}

func (s *Server) handleStartExecution(w http.ResponseWriter, r *http.Request) {
	var req startExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "bad_request", "decoding start request: "+err.Error())
		return
	}
	if req.Rule == "" {
		errorJSON(w, http.StatusBadRequest, "bad_request", "rule is required")
		return
	}

	sc := rules.SelectionContext{ChangedFiles: req.ChangedFiles, Marker: req.Marker, Pattern: req.Pattern}
	executionID, err := s.exec.start(r.Context(), req.Rule, sc)
	if err != nil {
		writeStoreError(w, "start_execution", err)
		return
	}
	writeJSON(w, http.StatusAccepted, startExecutionResponse{
		ExecutionID:  executionID,
		WebSocketURL: "/ws/" + executionID,
	})
}

func (s *Server) handleCancelExecution(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")
	if err := s.exec.cancel(executionID); err != nil {
		if errors.Is(err, errNoSuchExecution) {
			errorJSON(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		errorJSON(w, http.StatusConflict, "busy", err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
