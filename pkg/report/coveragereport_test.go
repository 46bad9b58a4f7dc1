// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/parsers"
)

func TestBuildCoverageReportOverall(t *testing.T) {
	perFile := []anvil.CoverageHistory{
		{FilePath: "a.py", TotalStatements: 100, CoveredStatements: 80, CoveragePercentage: 80},
		{FilePath: "b.py", TotalStatements: 50, CoveredStatements: 45, CoveragePercentage: 90},
	}
	r := BuildCoverageReport(perFile, nil, nil)
	require.InDelta(t, 100*float64(125)/150, r.Overall, 1e-9)
}

func TestBuildCoverageReportTrendIsSorted(t *testing.T) {
	t1 := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 7, 21, 0, 0, 0, 0, time.UTC)
	summaries := []anvil.CoverageSummary{
		{ExecutionID: "b", Timestamp: t2, TotalCoverage: 85},
		{ExecutionID: "a", Timestamp: t1, TotalCoverage: 80},
	}
	r := BuildCoverageReport(nil, summaries, nil)
	require.Len(t, r.Trend, 2)
	require.Equal(t, "2026-07-20", r.Trend[0].Date)
	require.InDelta(t, 80, r.Trend[0].Value, 1e-9)
	require.Equal(t, "2026-07-21", r.Trend[1].Date)
}

func TestBuildCoverageReportNoFiles(t *testing.T) {
	r := BuildCoverageReport(nil, nil, nil)
	require.Zero(t, r.Overall)
	require.Empty(t, r.Trend)
}

func TestCoverageReportRenderIsDeterministic(t *testing.T) {
	perFile := []anvil.CoverageHistory{{FilePath: "a.py", TotalStatements: 10, CoveredStatements: 9, CoveragePercentage: 90}}
	regs := []parsers.CoverageRegression{{FilePath: "a.py", Baseline: 95, Current: 90, Drop: 5}}
	r := BuildCoverageReport(perFile, nil, regs)

	html1, err := r.RenderHTML()
	require.NoError(t, err)
	html2, err := r.RenderHTML()
	require.NoError(t, err)
	require.Equal(t, html1, html2)
	require.Contains(t, html1, "Regressions")

	md1, err := r.RenderMarkdown()
	require.NoError(t, err)
	md2, err := r.RenderMarkdown()
	require.NoError(t, err)
	require.Equal(t, md1, md2)
	require.Contains(t, md1, "| File | Baseline | Current | Drop |")
}

func TestCoverageReportRenderMarkdownOmitsRegressionsWhenNil(t *testing.T) {
	r := BuildCoverageReport(nil, nil, nil)
	md, err := r.RenderMarkdown()
	require.NoError(t, err)
	require.NotContains(t, md, "Regressions")
}
