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

func TestInsertLintViolationsAndSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	violations := []LintViolation{
		{ExecutionID: "local-1", FilePath: "a.py", Line: 1, Severity: SeverityError, Code: "E501", Validator: "flake8", Timestamp: now, Space: SpaceLocal},
		{ExecutionID: "local-1", FilePath: "b.py", Line: 2, Severity: SeverityWarning, Code: "W291", Validator: "flake8", Timestamp: now, Space: SpaceLocal},
	}
	require.NoError(t, s.InsertLintViolations(ctx, violations))

	require.NoError(t, s.UpsertLintSummary(ctx, LintSummary{
		ExecutionID: "local-1", Timestamp: now, Validator: "flake8",
		FilesScanned: 2, TotalViolations: 2, Errors: 1, Warnings: 1,
		ByCode: map[string]int{"E501": 1, "W291": 1}, Space: SpaceLocal,
	}))

	got, err := s.GetLintViolations(ctx, LintFilter{ExecutionID: "local-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestInsertLintViolationsEmptyIsNoop(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertLintViolations(context.Background(), nil))
}

func TestUpsertCodeQualityMetrics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	m := CodeQualityMetrics{
		FilePath: "a.py", Validator: "flake8", TotalScans: 1, TotalViolations: 3,
		AvgViolationsPerScan: 3, MostCommonCode: "E501", LastScan: now,
	}
	require.NoError(t, s.UpsertCodeQualityMetrics(ctx, m))

	m.TotalScans = 2
	m.TotalViolations = 5
	m.AvgViolationsPerScan = 2.5
	require.NoError(t, s.UpsertCodeQualityMetrics(ctx, m))
}
