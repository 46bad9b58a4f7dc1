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

func TestInsertCoverageHistoryAndSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	rows := []CoverageHistory{
		{ExecutionID: "local-1", FilePath: "a.py", Timestamp: now, TotalStatements: 100, CoveredStatements: 80, CoveragePercentage: 80, MissingLines: []int{10, 11, 12}, Space: SpaceLocal},
	}
	require.NoError(t, s.InsertCoverageHistory(ctx, rows))

	require.NoError(t, s.UpsertCoverageSummary(ctx, CoverageSummary{
		ExecutionID: "local-1", Timestamp: now, TotalCoverage: 80,
		FilesAnalyzed: 1, TotalStatements: 100, CoveredStatements: 80, Space: SpaceLocal,
	}))

	got, err := s.GetCoverageHistory(ctx, CoverageFilter{ExecutionID: "local-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, []int{10, 11, 12}, got[0].MissingLines)

	sum, err := s.GetCoverageSummary(ctx, "local-1")
	require.NoError(t, err)
	require.Equal(t, 80.0, sum.TotalCoverage)
}

func TestGetCoverageSummaryNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetCoverageSummary(context.Background(), "nope")
	require.True(t, IsNotFound(err))
}

func TestUpsertCoverageSummaryReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	sum := CoverageSummary{ExecutionID: "local-1", Timestamp: now, TotalCoverage: 50, Space: SpaceLocal}
	require.NoError(t, s.UpsertCoverageSummary(ctx, sum))

	sum.TotalCoverage = 75
	require.NoError(t, s.UpsertCoverageSummary(ctx, sum))

	got, err := s.GetCoverageSummary(ctx, "local-1")
	require.NoError(t, err)
	require.Equal(t, 75.0, got.TotalCoverage)
}
