// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
)

func openTestStore(t *testing.T) *anvil.Store {
	t.Helper()
	s, err := anvil.Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFlakyScenarioS1(t *testing.T) {
	// Spec §8.2 S1: "flaky, threshold=0.5, window=1" over the three-row
	// fixture returns exactly [a/t::t2].
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.UpsertEntityStatistics(ctx, anvil.EntityStatistics{
		EntityID: "a/t::t1", EntityType: anvil.EntityTest,
		TotalRuns: 1, Passed: 1, FailureRate: 0, LastRun: now,
	}))
	require.NoError(t, s.UpsertEntityStatistics(ctx, anvil.EntityStatistics{
		EntityID: "a/t::t2", EntityType: anvil.EntityTest,
		TotalRuns: 1, Failed: 1, FailureRate: 1.0, LastRun: now,
	}))

	flaky, err := Flaky(ctx, s, anvil.EntityTest, 0.5, 1, 0)
	require.NoError(t, err)
	require.Len(t, flaky, 1)
	require.Equal(t, "a/t::t2", flaky[0].EntityID)
}

func TestFlakyExcludesBelowMinRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.UpsertEntityStatistics(ctx, anvil.EntityStatistics{
		EntityID: "e1", EntityType: anvil.EntityTest,
		TotalRuns: 1, Failed: 1, Passed: 0, FailureRate: 1.0, LastRun: now,
	}))

	// window=10 requires min_runs = max(2, 5) = 5; e1 only has 1 run, so it
	// is excluded even though its failure_rate clears the threshold.
	flaky, err := Flaky(ctx, s, anvil.EntityTest, 0.1, 10, 0)
	require.NoError(t, err)
	require.Empty(t, flaky)
}

func TestFlakySortedByFailureRateThenTotalRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.UpsertEntityStatistics(ctx, anvil.EntityStatistics{
		EntityID: "low", EntityType: anvil.EntityTest,
		TotalRuns: 10, Passed: 7, Failed: 3, FailureRate: 0.3, LastRun: now,
	}))
	require.NoError(t, s.UpsertEntityStatistics(ctx, anvil.EntityStatistics{
		EntityID: "tie-more-runs", EntityType: anvil.EntityTest,
		TotalRuns: 20, Passed: 14, Failed: 6, FailureRate: 0.3, LastRun: now,
	}))
	require.NoError(t, s.UpsertEntityStatistics(ctx, anvil.EntityStatistics{
		EntityID: "high", EntityType: anvil.EntityTest,
		TotalRuns: 4, Passed: 1, Failed: 3, FailureRate: 0.75, LastRun: now,
	}))

	flaky, err := Flaky(ctx, s, anvil.EntityTest, 0.1, 2, 0)
	require.NoError(t, err)
	require.Len(t, flaky, 3)
	require.Equal(t, "high", flaky[0].EntityID)
	require.Equal(t, "tie-more-runs", flaky[1].EntityID)
	require.Equal(t, "low", flaky[2].EntityID)
}

func TestFlakyLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.UpsertEntityStatistics(ctx, anvil.EntityStatistics{
			EntityID: string(rune('a' + i)), EntityType: anvil.EntityTest,
			TotalRuns: 4, Passed: 2, Failed: 2, FailureRate: 0.5, LastRun: now,
		}))
	}

	flaky, err := Flaky(ctx, s, anvil.EntityTest, 0.1, 2, 2)
	require.NoError(t, err)
	require.Len(t, flaky, 2)
}
