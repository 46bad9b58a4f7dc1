// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
)

func newTestServer(t *testing.T) (*Server, *anvil.Store) {
	t.Helper()
	store, err := anvil.Open(filepath.Join(t.TempDir(), "argos.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := New(store, nil, nil)
	return srv, store
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router(Config{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
}

func TestRuleCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router(Config{})

	rule := anvil.ExecutionRule{
		Name: "flaky-net", Enabled: true, Criteria: anvil.CriteriaFailureRate,
		Window: 20, Threshold: 0.1, EntityType: anvil.EntityTest,
		ExecutorConfig: map[string]string{"command": "pytest"},
	}
	body, err := json.Marshal(rule)
	require.NoError(t, err)

	putReq := httptest.NewRequest(http.MethodPut, "/api/rules/flaky-net", bytes.NewReader(body))
	putRec := httptest.NewRecorder()
	router.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/rules/flaky-net", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var got anvil.ExecutionRule
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &got))
	require.Equal(t, anvil.CriteriaFailureRate, got.Criteria)

	delReq := httptest.NewRequest(http.MethodDelete, "/api/rules/flaky-net", nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)
	require.Equal(t, http.StatusNoContent, delRec.Code)

	missingReq := httptest.NewRequest(http.MethodGet, "/api/rules/flaky-net", nil)
	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, missingReq)
	require.Equal(t, http.StatusNotFound, missingRec.Code)
}

func TestHandlePutRuleRejectsUnknownCriteria(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router(Config{})

	body := []byte(`{"criteria": "made-up"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/rules/bogus", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartExecutionUnknownRuleIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router(Config{})

	body := []byte(`{"rule": "nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/executions/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelUnknownExecutionIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router(Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/executions/does-not-exist/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCIEndpointsReturn501WithoutProvider(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router(Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/ci/runs/sync", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}
