// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
)

func TestComputeEmptyHistory(t *testing.T) {
	st := Compute("e1", nil, 0)
	require.Equal(t, "e1", st.EntityID)
	require.Zero(t, st.TotalRuns)
	require.Zero(t, st.FailureRate)
}

func TestComputeAllTime(t *testing.T) {
	now := time.Now()
	history := []anvil.ExecutionHistory{
		{EntityID: "a/t::t2", EntityType: anvil.EntityTest, Timestamp: now, Status: anvil.StatusFailed, DurationSeconds: 1.0},
		{EntityID: "a/t::t2", EntityType: anvil.EntityTest, Timestamp: now.Add(-time.Hour), Status: anvil.StatusPassed, DurationSeconds: 2.0},
		{EntityID: "a/t::t2", EntityType: anvil.EntityTest, Timestamp: now.Add(-2 * time.Hour), Status: anvil.StatusPassed, DurationSeconds: 3.0},
	}

	st := Compute("a/t::t2", history, 0)
	require.Equal(t, 3, st.TotalRuns)
	require.Equal(t, 1, st.Failed)
	require.Equal(t, 2, st.Passed)
	require.InDelta(t, 1.0/3.0, st.FailureRate, 1e-9)
	require.InDelta(t, 2.0, st.AvgDuration, 1e-9)
	require.Equal(t, now, st.LastRun)
	require.NotNil(t, st.LastFailure)
	require.Equal(t, now, *st.LastFailure)
}

func TestComputeScenarioS1(t *testing.T) {
	// Spec §8.2 S1: three ExecutionHistory rows, one failing; a/t::t2's
	// statistics come out failed=1,total_runs=1,failure_rate=1.0 because
	// only one of the three rows belongs to that entity.
	now := time.Now()
	history := []anvil.ExecutionHistory{
		{EntityID: "a/t::t2", EntityType: anvil.EntityTest, Timestamp: now, Status: anvil.StatusFailed, DurationSeconds: 0.5},
	}

	st := Compute("a/t::t2", history, 0)
	require.Equal(t, 1, st.TotalRuns)
	require.Equal(t, 1, st.Failed)
	require.Equal(t, 1.0, st.FailureRate)
}

func TestComputeWindowLimitsToMostRecent(t *testing.T) {
	now := time.Now()
	history := []anvil.ExecutionHistory{
		{EntityID: "e1", EntityType: anvil.EntityTest, Timestamp: now, Status: anvil.StatusFailed},
		{EntityID: "e1", EntityType: anvil.EntityTest, Timestamp: now.Add(-time.Hour), Status: anvil.StatusPassed},
		{EntityID: "e1", EntityType: anvil.EntityTest, Timestamp: now.Add(-2 * time.Hour), Status: anvil.StatusPassed},
	}

	st := Compute("e1", history, 1)
	require.Equal(t, 1, st.TotalRuns)
	require.Equal(t, 1, st.Failed)
	require.Equal(t, 1.0, st.FailureRate)
}

func TestComputeWindowLargerThanHistoryIsAllTime(t *testing.T) {
	now := time.Now()
	history := []anvil.ExecutionHistory{
		{EntityID: "e1", EntityType: anvil.EntityTest, Timestamp: now, Status: anvil.StatusPassed},
	}

	st := Compute("e1", history, 100)
	require.Equal(t, 1, st.TotalRuns)
}
