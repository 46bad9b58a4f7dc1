// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

// CILogSummary is the best-effort extraction from one CI job's raw log
// (spec §4.2.4). Any field may be zero/empty: a log that only contains a
// coverage line still yields a CILogSummary with just CoveragePercentage
// set.
type CILogSummary struct {
	Passed             int
	Failed             int
	Skipped            int
	FailedNodeIDs      []string
	FailedNodeErrors   map[string]string
	CoveragePercentage *float64
	LintIssueLines     []string
}

var (
	ansiEscapeRe    = regexp.MustCompile("\x1b\\[[0-9;]*m")
	summaryLineRe   = regexp.MustCompile(`(?i)(\d+)\s+passed(?:,\s*(\d+)\s+failed)?(?:,\s*(\d+)\s+skipped)?`)
	failedLineRe    = regexp.MustCompile(`(?i)^FAILED\s+(\S+)(?:\s*-\s*(.*))?$`)
	coverageLineRe  = regexp.MustCompile(`(?i)(?:total\s+)?coverage[:\s]+(\d+(?:\.\d+)?)\s*%`)
	lintIssueLineRe = regexp.MustCompile(`^\S+:\d+:\d+:\s+[A-Z]\d+\s`)
)

// ParseCILog extracts a best-effort summary from a raw CI job log. It is
// robust to interleaved output and ANSI color escapes. When multiple
// summary lines are present, the last one wins (spec §4.2.4).
func ParseCILog(raw string) (*CILogSummary, error) {
	clean := ansiEscapeRe.ReplaceAllString(raw, "")
	lines := strings.Split(clean, "\n")

	summary := &CILogSummary{FailedNodeErrors: map[string]string{}}

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")

		if m := summaryLineRe.FindStringSubmatch(line); m != nil {
			summary.Passed = atoiOrZero(m[1])
			summary.Failed = atoiOrZero(m[2])
			summary.Skipped = atoiOrZero(m[3])
		}

		if m := failedLineRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			nodeID := m[1]
			summary.FailedNodeIDs = append(summary.FailedNodeIDs, nodeID)
			if len(m) > 2 && m[2] != "" {
				summary.FailedNodeErrors[nodeID] = m[2]
			}
		}

		if m := coverageLineRe.FindStringSubmatch(line); m != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
				summary.CoveragePercentage = &pct
			}
		}

		if lintIssueLineRe.MatchString(strings.TrimSpace(line)) {
			summary.LintIssueLines = append(summary.LintIssueLines, strings.TrimSpace(line))
		}
	}

	return summary, nil
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
