// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ciprovider

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "acme", "widgets", "test-token", nil)
	c.retry = retryConfig{MaxAttempts: 4, InitialBackoff: time.Millisecond, Multiplier: 2, MaxBackoff: 10 * time.Millisecond}
	return c
}

func TestListRunsSinglePage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "/repos/acme/widgets/actions/runs", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total_count": 1,
			"workflow_runs": []map[string]any{
				{"id": 1, "name": "ci", "head_branch": "main", "head_sha": "abc", "status": "completed",
					"conclusion": "success", "run_number": 7, "run_started_at": "2026-07-30T10:00:00Z", "updated_at": "2026-07-30T10:05:00Z"},
			},
		})
	}))

	runs, err := c.ListRuns(context.Background(), RunFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "1", runs[0].RemoteRunID)
	require.Equal(t, "main", runs[0].Branch)
	require.Equal(t, 300.0, runs[0].DurationSeconds)
}

func TestListRunsPagesUntilLimitSatisfied(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := atomic.AddInt32(&calls, 1)
		runs := make([]map[string]any, perPage)
		for i := range runs {
			id := int(page-1)*perPage + i
			runs[i] = map[string]any{"id": id, "name": "ci", "head_branch": "main", "status": "completed",
				"conclusion": "success", "run_started_at": "2026-07-30T10:00:00Z", "updated_at": "2026-07-30T10:01:00Z"}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"workflow_runs": runs})
	}))

	runs, err := c.ListRuns(context.Background(), RunFilter{Limit: 120})
	require.NoError(t, err)
	require.Len(t, runs, 120)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListRunsStopsAtSince(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"workflow_runs": []map[string]any{
				{"id": 1, "run_started_at": "2026-07-30T10:00:00Z", "updated_at": "2026-07-30T10:01:00Z"},
				{"id": 2, "run_started_at": "2026-07-20T10:00:00Z", "updated_at": "2026-07-20T10:01:00Z"},
			},
		})
	}))
	since := time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC)

	runs, err := c.ListRuns(context.Background(), RunFilter{Since: &since})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "1", runs[0].RemoteRunID)
}

func TestListJobsForRun(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widgets/actions/runs/42/jobs", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jobs": []map[string]any{
				{"id": 9, "run_id": 42, "name": "test", "status": "completed", "conclusion": "failure",
					"started_at": "2026-07-30T10:00:00Z", "completed_at": "2026-07-30T10:02:00Z", "runner_name": "ubuntu-latest"},
			},
		})
	}))

	jobs, err := c.ListJobs(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "9", jobs[0].RemoteJobID)
	require.NotNil(t, jobs[0].CompletedAt)
}

func TestGetRawRetriesOn429ThenSucceeds(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, "rate limited")
			return
		}
		fmt.Fprint(w, "log line one\n")
	}))

	data, err := c.FetchJobLog(context.Background(), "9")
	require.NoError(t, err)
	require.Equal(t, "log line one\n", string(data))
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetRawSurfaces4xxWithoutRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "not found")
	}))

	_, err := c.FetchJobLog(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRawExhaustsRetriesOn5xx(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.FetchJobLog(context.Background(), "9")
	require.Error(t, err)
	require.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestFetchRunArtifactsExtractsMatchingFiles(t *testing.T) {
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	f, _ := zw.Create("coverage.xml")
	_, _ = f.Write([]byte("<coverage/>"))
	f2, _ := zw.Create("notes.txt")
	_, _ = f2.Write([]byte("irrelevant"))
	require.NoError(t, zw.Close())

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets/actions/runs/42/artifacts":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"artifacts": []map[string]any{{"id": 5, "name": "coverage-report"}},
			})
		case "/repos/acme/widgets/actions/artifacts/5/zip":
			w.Write(zipBuf.Bytes())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	files, err := c.FetchRunArtifacts(context.Background(), "42", "**/*.xml")
	require.NoError(t, err)
	require.Len(t, files, 1)
	for name, content := range files {
		require.Contains(t, name, "coverage.xml")
		require.Equal(t, "<coverage/>", string(content))
	}
}
