// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/parsers"
)

// CoverageReport is the full input to the coverage renderer (spec §4.9:
// "overall gauge, per-file table, trend series, optional regression list
// vs a specified baseline").
type CoverageReport struct {
	Overall     float64
	PerFile     []anvil.CoverageHistory
	Trend       []TrendPoint
	Regressions []parsers.CoverageRegression
}

// BuildCoverageReport folds one execution's CoverageHistory plus a
// multi-execution summary series into a CoverageReport. regressions may
// be nil when no baseline was requested.
func BuildCoverageReport(perFile []anvil.CoverageHistory, summaries []anvil.CoverageSummary, regressions []parsers.CoverageRegression) *CoverageReport {
	r := &CoverageReport{PerFile: perFile, Regressions: regressions}

	if len(perFile) > 0 {
		var totalStatements, coveredStatements int
		for _, f := range perFile {
			totalStatements += f.TotalStatements
			coveredStatements += f.CoveredStatements
		}
		if totalStatements > 0 {
			r.Overall = 100 * float64(coveredStatements) / float64(totalStatements)
		}
	}

	sorted := append([]anvil.CoverageSummary(nil), summaries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	for _, s := range sorted {
		r.Trend = append(r.Trend, TrendPoint{Date: s.Timestamp.UTC().Format("2006-01-02"), Value: s.TotalCoverage})
	}

	return r
}

func (r *CoverageReport) RenderHTML() (string, error) {
	return renderHTMLTemplate("coveragereport", coverageReportHTMLTemplate, r)
}

func (r *CoverageReport) RenderMarkdown() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Coverage Report\n\nOverall: %.1f%%\n\n", r.Overall)

	b.WriteString("## Trend\n\n")
	var trendRows [][]string
	for _, tp := range r.Trend {
		trendRows = append(trendRows, []string{tp.Date, fmt.Sprintf("%.1f%%", tp.Value)})
	}
	writeMarkdownTable(&b, []string{"Date", "Coverage"}, trendRows)

	b.WriteString("\n## Per-File\n\n")
	var fileRows [][]string
	for _, f := range r.PerFile {
		fileRows = append(fileRows, []string{f.FilePath, fmt.Sprintf("%.1f%%", f.CoveragePercentage), fmt.Sprintf("%d/%d", f.CoveredStatements, f.TotalStatements)})
	}
	writeMarkdownTable(&b, []string{"File", "Coverage", "Statements"}, fileRows)

	if len(r.Regressions) > 0 {
		b.WriteString("\n## Regressions\n\n")
		var regRows [][]string
		for _, reg := range r.Regressions {
			regRows = append(regRows, []string{reg.FilePath, fmt.Sprintf("%.1f%%", reg.Baseline), fmt.Sprintf("%.1f%%", reg.Current), fmt.Sprintf("%.1f%%", reg.Drop)})
		}
		writeMarkdownTable(&b, []string{"File", "Baseline", "Current", "Drop"}, regRows)
	}

	return b.String(), nil
}
