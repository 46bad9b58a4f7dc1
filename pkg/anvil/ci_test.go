// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpsertCIWorkflowRunAndJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	run := CIWorkflowRun{
		RemoteRunID: "gh-run-1", WorkflowName: "ci", Branch: "main", CommitSHA: "abc123",
		Status: "in_progress", StartedAt: now, RunNumber: 42,
	}
	require.NoError(t, s.UpsertCIWorkflowRun(ctx, run))

	run.Status = "completed"
	run.Conclusion = "success"
	run.DurationSeconds = 120
	require.NoError(t, s.UpsertCIWorkflowRun(ctx, run))

	runs, err := s.GetCIWorkflowRuns(ctx, CIFilter{Branch: "main"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "completed", runs[0].Status)
	require.Equal(t, "success", runs[0].Conclusion)

	job := CIWorkflowJob{
		RemoteJobID: "gh-job-1", RemoteRunID: "gh-run-1", JobName: "unit-tests",
		Status: "completed", Conclusion: "success", StartedAt: now, RunnerOS: "ubuntu-22.04",
	}
	require.NoError(t, s.UpsertCIWorkflowJob(ctx, job))

	jobs, err := s.GetCIWorkflowJobs(ctx, "gh-run-1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "unit-tests", jobs[0].JobName)
}

func TestGetCIWorkflowRunsFiltersByConclusion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.UpsertCIWorkflowRun(ctx, CIWorkflowRun{RemoteRunID: "r1", WorkflowName: "ci", Branch: "main", Status: "completed", Conclusion: "success", StartedAt: now}))
	require.NoError(t, s.UpsertCIWorkflowRun(ctx, CIWorkflowRun{RemoteRunID: "r2", WorkflowName: "ci", Branch: "main", Status: "completed", Conclusion: "failure", StartedAt: now}))

	failed, err := s.GetCIWorkflowRuns(ctx, CIFilter{Conclusion: "failure"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "r2", failed[0].RemoteRunID)
}
