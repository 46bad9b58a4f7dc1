// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kraklabs/argos/pkg/anvil"
)

// mountRuleRoutes wires ExecutionRule CRUD (spec §4.4, §4.8.3).
func mountRuleRoutes(r chi.Router, s *Server) {
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Put("/{name}", s.handlePutRule)
		r.Get("/{name}", s.handleGetRule)
		r.Delete("/{name}", s.handleDeleteRule)
	})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.ListExecutionRules(r.Context())
	if err != nil {
		writeStoreError(w, "list_execution_rules", err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rule, err := s.store.GetExecutionRule(r.Context(), name)
	if err != nil {
		writeStoreError(w, "get_execution_rule", err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handlePutRule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var rule anvil.ExecutionRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		errorJSON(w, http.StatusBadRequest, "bad_request", "decoding rule body: "+err.Error())
		return
	}
	rule.Name = name

	if err := validateRule(rule); err != nil {
		errorJSON(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := s.store.UpsertExecutionRule(r.Context(), rule); err != nil {
		writeStoreError(w, "upsert_execution_rule", err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.DeleteExecutionRule(r.Context(), name); err != nil {
		writeStoreError(w, "delete_execution_rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateRule(rule anvil.ExecutionRule) error {
	if rule.Name == "" {
		return errBadRule("rule name must not be empty")
	}
	switch rule.Criteria {
	case anvil.CriteriaAll, anvil.CriteriaGroup, anvil.CriteriaFailedInLast,
		anvil.CriteriaFailureRate, anvil.CriteriaChangedFiles, anvil.CriteriaMarker, anvil.CriteriaPattern:
	default:
		return errBadRule("unknown criteria " + string(rule.Criteria))
	}
	return nil
}

type errBadRule string

func (e errBadRule) Error() string { return string(e) }
