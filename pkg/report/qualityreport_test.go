// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
)

func TestBuildQualityReportPerValidatorRollup(t *testing.T) {
	now := time.Now()
	summaries := []anvil.LintSummary{
		{Validator: "flake8", Timestamp: now, Errors: 2, Warnings: 1, TotalViolations: 3},
		{Validator: "flake8", Timestamp: now, Errors: 1, Warnings: 0, TotalViolations: 1},
		{Validator: "mypy", Timestamp: now, Errors: 0, Warnings: 4, TotalViolations: 4},
	}
	r := BuildQualityReport(nil, summaries, nil)
	require.Len(t, r.PerValidator, 2)
	require.Equal(t, "flake8", r.PerValidator[0].Validator)
	require.Equal(t, 3, r.PerValidator[0].Errors)
	require.Equal(t, 4, r.PerValidator[0].Total)
	require.Equal(t, "mypy", r.PerValidator[1].Validator)
}

func TestBuildQualityReportTopCodesAndFilesRankedDescending(t *testing.T) {
	violations := []anvil.LintViolation{
		{Code: "E501", FilePath: "a.py"},
		{Code: "E501", FilePath: "a.py"},
		{Code: "W291", FilePath: "b.py"},
		{Code: "E501", FilePath: "b.py"},
	}
	r := BuildQualityReport(violations, nil, nil)
	require.Equal(t, "E501", r.TopCodes[0].Code)
	require.Equal(t, 3, r.TopCodes[0].Count)
	require.Equal(t, "W291", r.TopCodes[1].Code)

	require.Len(t, r.TopFiles, 2)
	require.Equal(t, 2, r.TopFiles[0].Count)
}

func TestBuildQualityReportComparisonDeltas(t *testing.T) {
	now := time.Now()
	local := []anvil.LintSummary{{Validator: "flake8", Timestamp: now, TotalViolations: 2}}
	ci := []anvil.LintSummary{{Validator: "flake8", TotalViolations: 5}}
	r := BuildQualityReport(nil, local, ci)
	require.Len(t, r.Comparison, 1)
	require.Equal(t, 2, r.Comparison[0].Local)
	require.Equal(t, 5, r.Comparison[0].CI)
	require.Equal(t, "↓", r.Comparison[0].Delta)
}

func TestBuildQualityReportNilCISummariesOmitsComparison(t *testing.T) {
	r := BuildQualityReport(nil, []anvil.LintSummary{{Validator: "flake8"}}, nil)
	require.Nil(t, r.Comparison)
}

func TestQualityReportRenderIsDeterministic(t *testing.T) {
	now := time.Now()
	violations := []anvil.LintViolation{{Code: "E501", FilePath: "a.py"}}
	summaries := []anvil.LintSummary{{Validator: "flake8", Timestamp: now, Errors: 1, TotalViolations: 1}}
	r := BuildQualityReport(violations, summaries, summaries)

	html1, err := r.RenderHTML()
	require.NoError(t, err)
	html2, err := r.RenderHTML()
	require.NoError(t, err)
	require.Equal(t, html1, html2)

	md1, err := r.RenderMarkdown()
	require.NoError(t, err)
	md2, err := r.RenderMarkdown()
	require.NoError(t, err)
	require.Equal(t, md1, md2)
	require.Contains(t, md1, "Local vs CI")
}
