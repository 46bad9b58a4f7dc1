// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/parsers"
)

func openTestStore(t *testing.T) *anvil.Store {
	t.Helper()
	s, err := anvil.Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIngestTestReportScenarioS1(t *testing.T) {
	// Spec §8.2 S1: three ExecutionHistory rows inserted; a/t::t2's
	// EntityStatistics come out failed=1,total_runs=1,failure_rate=1.0.
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	results := []parsers.TestResult{
		{NodeID: "a/t::t1", Outcome: parsers.OutcomePassed, DurationSeconds: 0.1},
		{NodeID: "a/t::t2", Outcome: parsers.OutcomeFailed, DurationSeconds: 0.2},
		{NodeID: "a/t::t3", Outcome: parsers.OutcomeSkipped, DurationSeconds: 0.0},
	}

	res, err := p.IngestTestReport(ctx, Context{ExecutionID: "local-20260731-120000", Space: anvil.SpaceLocal, Timestamp: now}, results)
	require.NoError(t, err)
	require.Equal(t, 3, res.RowsInserted)
	require.Len(t, res.EntitiesAffected, 3)

	st, err := s.GetEntityStatistics(ctx, "a/t::t2")
	require.NoError(t, err)
	require.Equal(t, 1, st.TotalRuns)
	require.Equal(t, 1, st.Failed)
	require.Equal(t, 1.0, st.FailureRate)

	history, err := s.GetExecutionHistory(ctx, anvil.HistoryFilter{Space: anvil.SpaceAll})
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestIngestTestReportDuplicateExecutionIDIsNoOp(t *testing.T) {
	// spec §3.3 invariant 2: re-ingesting the same execution_id for the
	// same entity_id must not create a duplicate row.
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	results := []parsers.TestResult{{NodeID: "a/t::t1", Outcome: parsers.OutcomePassed, DurationSeconds: 0.1}}
	ictx := Context{ExecutionID: "local-20260731-120000", Space: anvil.SpaceLocal, Timestamp: now}

	_, err := p.IngestTestReport(ctx, ictx, results)
	require.NoError(t, err)

	_, err = p.IngestTestReport(ctx, ictx, results)
	require.Error(t, err)

	history, err := s.GetExecutionHistory(ctx, anvil.HistoryFilter{Space: anvil.SpaceAll})
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestIngestLintWritesViolationsSummaryAndQuality(t *testing.T) {
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	violations := []parsers.LintViolation{
		{FilePath: "src/x.py", Line: 1, Column: 1, Severity: parsers.SeverityError, Code: "E501", Message: "line too long"},
		{FilePath: "src/x.py", Line: 5, Column: 1, Severity: parsers.SeverityWarning, Code: "W291", Message: "trailing whitespace"},
	}
	summary := parsers.LintSummary{FilesScanned: 1, TotalViolations: 2, Errors: 1, Warnings: 1, ByCode: map[string]int{"E501": 1, "W291": 1}}

	res, err := p.IngestLint(ctx, Context{ExecutionID: "local-1", Space: anvil.SpaceLocal, Timestamp: now}, "flake8", violations, summary)
	require.NoError(t, err)
	require.Equal(t, 2, res.RowsInserted)

	rows, err := s.GetLintViolations(ctx, anvil.LintFilter{ExecutionID: "local-1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestIngestCoverageWritesHistoryAndSummary(t *testing.T) {
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	data := &parsers.CoverageData{
		TotalCoverage: 75.0, FilesAnalyzed: 1, TotalStatements: 4, CoveredStatements: 3,
		PerFile: []parsers.FileCoverage{
			{FilePath: "src/x.py", TotalStatements: 4, CoveredStatements: 3, CoveragePercentage: 75.0, MissingLines: []int{10}},
		},
	}

	res, err := p.IngestCoverage(ctx, Context{ExecutionID: "local-1", Space: anvil.SpaceLocal, Timestamp: now}, data)
	require.NoError(t, err)
	require.Equal(t, 1, res.RowsInserted)

	sum, err := s.GetCoverageSummary(ctx, "local-1")
	require.NoError(t, err)
	require.Equal(t, 75.0, sum.TotalCoverage)
}

func TestIngestCIRunScenarioS5Idempotent(t *testing.T) {
	// Spec §8.2 S5: re-ingesting the same remote_run_id twice leaves row
	// counts unchanged (idempotent convergence, spec §4.3).
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	run := anvil.CIWorkflowRun{RemoteRunID: "999", WorkflowName: "ci", Branch: "main", CommitSHA: "abc", Status: "completed", Conclusion: "success", StartedAt: now, RunNumber: 1}
	jobs := []anvil.CIWorkflowJob{{RemoteJobID: "j1", RemoteRunID: "999", JobName: "build", Status: "completed", Conclusion: "success", StartedAt: now}}

	_, err := p.IngestCIRun(ctx, run, jobs)
	require.NoError(t, err)
	_, err = p.IngestCIRun(ctx, run, jobs)
	require.NoError(t, err)

	runs, err := s.GetCIWorkflowRuns(ctx, anvil.CIFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	gotJobs, err := s.GetCIWorkflowJobs(ctx, "999")
	require.NoError(t, err)
	require.Len(t, gotJobs, 1)
}

func TestIngestCIRunWritesHistoryFromLogContent(t *testing.T) {
	// A job log with no structured report still yields space=ci history
	// rows for its failed node ids, so local-vs-CI comparison (spec
	// §4.8.2) has something to read.
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	log := "2 passed, 1 failed, 0 skipped\nFAILED a/t::t2 - assert 1 == 2"
	run := anvil.CIWorkflowRun{RemoteRunID: "100", WorkflowName: "ci", Branch: "main", CommitSHA: "abc", Status: "completed", Conclusion: "failure", StartedAt: now, RunNumber: 1}
	jobs := []anvil.CIWorkflowJob{{RemoteJobID: "j1", RemoteRunID: "100", JobName: "test", Status: "completed", Conclusion: "failure", StartedAt: now, LogContent: &log}}

	_, err := p.IngestCIRun(ctx, run, jobs)
	require.NoError(t, err)

	rows, err := s.GetExecutionHistory(ctx, anvil.HistoryFilter{EntityID: "a/t::t2", Space: anvil.SpaceCI})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, anvil.StatusFailed, rows[0].Status)
	require.Equal(t, CIExecutionID("100", "j1"), rows[0].ExecutionID)
}

func TestIngestCIRunDedupesReingestedLog(t *testing.T) {
	// Spec §3.3 invariant 2: re-ingesting the same CI log doesn't duplicate
	// history rows or fail the sync.
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	log := "FAILED a/t::t2"
	run := anvil.CIWorkflowRun{RemoteRunID: "101", WorkflowName: "ci", Branch: "main", CommitSHA: "abc", Status: "completed", Conclusion: "failure", StartedAt: now, RunNumber: 1}
	jobs := []anvil.CIWorkflowJob{{RemoteJobID: "j1", RemoteRunID: "101", JobName: "test", Status: "completed", Conclusion: "failure", StartedAt: now, LogContent: &log}}

	_, err := p.IngestCIRun(ctx, run, jobs)
	require.NoError(t, err)
	_, err = p.IngestCIRun(ctx, run, jobs)
	require.NoError(t, err)

	rows, err := s.GetExecutionHistory(ctx, anvil.HistoryFilter{EntityID: "a/t::t2", Space: anvil.SpaceCI})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestIngestCIRunWritesHistoryFromTestResultsJSON(t *testing.T) {
	// A job carrying a structured report yields pass and fail rows alike,
	// unlike the log-only path which only sees failures.
	s := openTestStore(t)
	p := New(s, nil)
	ctx := context.Background()
	now := time.Now()

	report := `{"tests":[{"nodeid":"a/t::t1","outcome":"passed"},{"nodeid":"a/t::t2","outcome":"failed"}]}`
	run := anvil.CIWorkflowRun{RemoteRunID: "102", WorkflowName: "ci", Branch: "main", CommitSHA: "abc", Status: "completed", Conclusion: "failure", StartedAt: now, RunNumber: 1}
	jobs := []anvil.CIWorkflowJob{{RemoteJobID: "j1", RemoteRunID: "102", JobName: "test", Status: "completed", Conclusion: "failure", StartedAt: now, TestResultsJSON: &report}}

	_, err := p.IngestCIRun(ctx, run, jobs)
	require.NoError(t, err)

	passed, err := s.GetExecutionHistory(ctx, anvil.HistoryFilter{EntityID: "a/t::t1", Space: anvil.SpaceCI})
	require.NoError(t, err)
	require.Len(t, passed, 1)
	require.Equal(t, anvil.StatusPassed, passed[0].Status)

	failed, err := s.GetExecutionHistory(ctx, anvil.HistoryFilter{EntityID: "a/t::t2", Space: anvil.SpaceCI})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, anvil.StatusFailed, failed[0].Status)
}
