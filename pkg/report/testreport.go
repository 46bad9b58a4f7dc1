// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kraklabs/argos/pkg/anvil"
)

// SummaryCard is the top-of-report rollup for a test-execution report
// (spec §4.9: "summary card (total, pass/fail/skip, success rate, avg
// duration, 7-day trend)").
type SummaryCard struct {
	Total              int
	Passed             int
	Failed             int
	Skipped            int
	SuccessRate        float64
	AvgDurationSeconds float64
	SevenDayTrend      []TrendPoint
}

// SlowEntity is one row of the "slowest" table.
type SlowEntity struct {
	EntityID        string
	DurationSeconds float64
}

// TestExecutionReport is the full input to the test-execution renderer.
type TestExecutionReport struct {
	Summary    SummaryCard
	Flaky      []anvil.EntityStatistics
	Slowest    []SlowEntity
	DailyTrend []TrendPoint
}

// BuildTestExecutionReport folds a slice of ExecutionHistory plus a
// pre-computed flaky list into a TestExecutionReport. history is not
// assumed to be sorted; slowestN bounds the "slowest" table.
func BuildTestExecutionReport(history []anvil.ExecutionHistory, flaky []anvil.EntityStatistics, slowestN int) *TestExecutionReport {
	byDate := map[string]*TrendPoint{}
	var totalDuration float64
	card := SummaryCard{}

	for _, h := range history {
		card.Total++
		switch h.Status {
		case anvil.StatusPassed:
			card.Passed++
		case anvil.StatusSkipped:
			card.Skipped++
		default:
			card.Failed++
		}
		totalDuration += h.DurationSeconds

		date := h.Timestamp.UTC().Format("2006-01-02")
		tp, ok := byDate[date]
		if !ok {
			tp = &TrendPoint{Date: date}
			byDate[date] = tp
		}
		switch h.Status {
		case anvil.StatusPassed:
			tp.Passed++
		case anvil.StatusSkipped:
			tp.Skipped++
		default:
			tp.Failed++
		}
	}

	if card.Total > 0 {
		card.SuccessRate = float64(card.Passed) / float64(card.Total)
		card.AvgDurationSeconds = totalDuration / float64(card.Total)
	}

	var daily []TrendPoint
	for _, date := range sortedKeys(byDate) {
		daily = append(daily, *byDate[date])
	}
	if n := len(daily); n > 7 {
		card.SevenDayTrend = daily[n-7:]
	} else {
		card.SevenDayTrend = daily
	}

	slowest := make([]SlowEntity, 0, len(history))
	seen := map[string]bool{}
	sorted := append([]anvil.ExecutionHistory(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DurationSeconds > sorted[j].DurationSeconds })
	for _, h := range sorted {
		if seen[h.EntityID] {
			continue
		}
		seen[h.EntityID] = true
		slowest = append(slowest, SlowEntity{EntityID: h.EntityID, DurationSeconds: h.DurationSeconds})
		if slowestN > 0 && len(slowest) >= slowestN {
			break
		}
	}

	return &TestExecutionReport{Summary: card, Flaky: flaky, Slowest: slowest, DailyTrend: daily}
}

func (r *TestExecutionReport) RenderHTML() (string, error) {
	return renderHTMLTemplate("testreport", testReportHTMLTemplate, r)
}

func (r *TestExecutionReport) RenderMarkdown() (string, error) {
	var b strings.Builder
	b.WriteString("# Test Execution Report\n\n")
	fmt.Fprintf(&b, "Total: %d · Passed: %d · Failed: %d · Skipped: %d · Success rate: %.1f%% · Avg duration: %.3fs\n\n",
		r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Skipped, r.Summary.SuccessRate*100, r.Summary.AvgDurationSeconds)

	b.WriteString("## 7-Day Trend\n\n")
	var trendRows [][]string
	for _, tp := range r.Summary.SevenDayTrend {
		trendRows = append(trendRows, []string{tp.Date, fmt.Sprint(tp.Passed), fmt.Sprint(tp.Failed), fmt.Sprint(tp.Skipped)})
	}
	writeMarkdownTable(&b, []string{"Date", "Passed", "Failed", "Skipped"}, trendRows)

	b.WriteString("\n## Flaky Entities\n\n")
	if len(r.Flaky) == 0 {
		b.WriteString("None.\n")
	} else {
		var flakyRows [][]string
		for _, f := range r.Flaky {
			flakyRows = append(flakyRows, []string{f.EntityID, fmt.Sprintf("%.1f%%", f.FailureRate*100), fmt.Sprint(f.TotalRuns)})
		}
		writeMarkdownTable(&b, []string{"Entity", "Failure Rate", "Total Runs"}, flakyRows)
	}

	b.WriteString("\n## Slowest\n\n")
	var slowRows [][]string
	for _, s := range r.Slowest {
		slowRows = append(slowRows, []string{s.EntityID, fmt.Sprintf("%.3f", s.DurationSeconds)})
	}
	writeMarkdownTable(&b, []string{"Entity", "Duration (s)"}, slowRows)

	return b.String(), nil
}
