// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
)

func openComparisonTestStore(t *testing.T) *anvil.Store {
	t.Helper()
	s, err := anvil.Open(filepath.Join(t.TempDir(), "cmp.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestCompareLocalVsCIDisagreement reproduces spec §4.8.2's worked example:
// local passes, CI fails on two platforms.
func TestCompareLocalVsCIDisagreement(t *testing.T) {
	s := openComparisonTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.InsertExecutionHistory(ctx, anvil.ExecutionHistory{
		EntityID: "tests/net::tcp_timeout", EntityType: anvil.EntityTest,
		ExecutionID: "local-20260731-090000", Timestamp: now, Status: anvil.StatusPassed, Space: anvil.SpaceLocal,
	})
	require.NoError(t, err)

	require.NoError(t, s.UpsertCIWorkflowRun(ctx, anvil.CIWorkflowRun{RemoteRunID: "555", WorkflowName: "ci", StartedAt: now}))
	require.NoError(t, s.UpsertCIWorkflowJob(ctx, anvil.CIWorkflowJob{RemoteJobID: "1", RemoteRunID: "555", JobName: "ubuntu", RunnerOS: "ubuntu-latest", StartedAt: now}))
	require.NoError(t, s.UpsertCIWorkflowJob(ctx, anvil.CIWorkflowJob{RemoteJobID: "2", RemoteRunID: "555", JobName: "windows", RunnerOS: "windows-latest", StartedAt: now}))

	_, err = s.InsertExecutionHistory(ctx, anvil.ExecutionHistory{
		EntityID: "tests/net::tcp_timeout", EntityType: anvil.EntityTest,
		ExecutionID: "ci-555-1", Timestamp: now, Status: anvil.StatusFailed, Space: anvil.SpaceCI,
	})
	require.NoError(t, err)
	_, err = s.InsertExecutionHistory(ctx, anvil.ExecutionHistory{
		EntityID: "tests/net::tcp_timeout", EntityType: anvil.EntityTest,
		ExecutionID: "ci-555-2", Timestamp: now, Status: anvil.StatusFailed, Space: anvil.SpaceCI,
	})
	require.NoError(t, err)

	cmp, err := compareLocalVsCI(ctx, s, "tests/net::tcp_timeout")
	require.NoError(t, err)
	require.NotNil(t, cmp.Local)
	require.Equal(t, anvil.StatusPassed, *cmp.Local)
	require.Equal(t, map[string]string{"ubuntu-latest": "FAILED", "windows-latest": "FAILED"}, cmp.CIByPlatform)
	require.True(t, cmp.Disagreement)
}

func TestCompareLocalVsCINoLocalHistory(t *testing.T) {
	s := openComparisonTestStore(t)
	ctx := context.Background()

	cmp, err := compareLocalVsCI(ctx, s, "tests/unseen::case")
	require.NoError(t, err)
	require.Nil(t, cmp.Local)
	require.False(t, cmp.Disagreement)
}

func TestSplitCIExecutionID(t *testing.T) {
	runID, jobID, ok := splitCIExecutionID("ci-555-2")
	require.True(t, ok)
	require.Equal(t, "555", runID)
	require.Equal(t, "2", jobID)

	_, _, ok = splitCIExecutionID("ci-555")
	require.False(t, ok)

	_, _, ok = splitCIExecutionID("local-20260731-090000")
	require.False(t, ok)
}

func TestPlatformSpecificFailures(t *testing.T) {
	s := openComparisonTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.InsertExecutionHistory(ctx, anvil.ExecutionHistory{
		EntityID: "tests/net::tcp_timeout", EntityType: anvil.EntityTest,
		ExecutionID: "local-20260731-090000", Timestamp: now, Status: anvil.StatusPassed, Space: anvil.SpaceLocal,
	})
	require.NoError(t, err)
	require.NoError(t, s.UpsertCIWorkflowRun(ctx, anvil.CIWorkflowRun{RemoteRunID: "555", WorkflowName: "ci", StartedAt: now}))
	require.NoError(t, s.UpsertCIWorkflowJob(ctx, anvil.CIWorkflowJob{RemoteJobID: "1", RemoteRunID: "555", RunnerOS: "ubuntu-latest", StartedAt: now}))
	_, err = s.InsertExecutionHistory(ctx, anvil.ExecutionHistory{
		EntityID: "tests/net::tcp_timeout", EntityType: anvil.EntityTest,
		ExecutionID: "ci-555-1", Timestamp: now, Status: anvil.StatusFailed, Space: anvil.SpaceCI,
	})
	require.NoError(t, err)

	out, err := platformSpecificFailures(ctx, s, []string{"tests/net::tcp_timeout"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "ubuntu-latest", out[0].Platform)
}
