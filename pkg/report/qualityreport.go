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

// ValidatorSummary is one validator's row in the quality report.
type ValidatorSummary struct {
	Validator string
	Errors    int
	Warnings  int
	Info      int
	Total     int
}

// CodeCount and FileCount back the "top violation codes"/"top files"
// tables.
type CodeCount struct {
	Code  string
	Count int
}

type FileCount struct {
	FilePath string
	Count    int
}

// ValidatorComparisonRow is one row of the optional local-vs-CI side by
// side (spec §4.9: "optional local-vs-CI side-by-side with delta
// (↓/↑/=) per validator").
type ValidatorComparisonRow struct {
	Validator string
	Local     int
	CI        int
	Delta     string
}

// QualityReport is the full input to the quality renderer.
type QualityReport struct {
	PerValidator []ValidatorSummary
	TopCodes     []CodeCount
	TopFiles     []FileCount
	Comparison   []ValidatorComparisonRow
}

// BuildQualityReport folds violations plus per-validator summaries into a
// QualityReport. ciSummaries may be nil; when non-nil, a Comparison table
// is built by matching validator names against summaries.
func BuildQualityReport(violations []anvil.LintViolation, summaries []anvil.LintSummary, ciSummaries []anvil.LintSummary) *QualityReport {
	r := &QualityReport{}

	byValidator := map[string]*ValidatorSummary{}
	for _, s := range summaries {
		v, ok := byValidator[s.Validator]
		if !ok {
			v = &ValidatorSummary{Validator: s.Validator}
			byValidator[s.Validator] = v
		}
		v.Errors += s.Errors
		v.Warnings += s.Warnings
		v.Info += s.Info
		v.Total += s.TotalViolations
	}
	for _, name := range sortedKeys(byValidator) {
		r.PerValidator = append(r.PerValidator, *byValidator[name])
	}

	byCode := map[string]int{}
	byFile := map[string]int{}
	for _, v := range violations {
		byCode[v.Code]++
		byFile[v.FilePath]++
	}
	r.TopCodes = topN(byCode, func(k string, n int) CodeCount { return CodeCount{Code: k, Count: n} })
	r.TopFiles = topN(byFile, func(k string, n int) FileCount { return FileCount{FilePath: k, Count: n} })

	if ciSummaries != nil {
		byValidatorCI := map[string]int{}
		for _, s := range ciSummaries {
			byValidatorCI[s.Validator] += s.TotalViolations
		}
		for _, name := range sortedKeys(byValidator) {
			local := byValidator[name].Total
			ci := byValidatorCI[name]
			r.Comparison = append(r.Comparison, ValidatorComparisonRow{
				Validator: name, Local: local, CI: ci, Delta: deltaSymbol(local, ci),
			})
		}
	}

	return r
}

func deltaSymbol(local, ci int) string {
	switch {
	case local < ci:
		return "↓"
	case local > ci:
		return "↑"
	default:
		return "="
	}
}

func topN[T any](counts map[string]int, build func(string, int) T) []T {
	keys := sortedKeys(counts)
	sort.SliceStable(keys, func(i, j int) bool { return counts[keys[i]] > counts[keys[j]] })
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, build(k, counts[k]))
	}
	return out
}

func (r *QualityReport) RenderHTML() (string, error) {
	return renderHTMLTemplate("qualityreport", qualityReportHTMLTemplate, r)
}

func (r *QualityReport) RenderMarkdown() (string, error) {
	var b strings.Builder
	b.WriteString("# Quality Report\n\n")

	b.WriteString("## Per-Validator Summary\n\n")
	var validatorRows [][]string
	for _, v := range r.PerValidator {
		validatorRows = append(validatorRows, []string{v.Validator, fmt.Sprint(v.Errors), fmt.Sprint(v.Warnings), fmt.Sprint(v.Info), fmt.Sprint(v.Total)})
	}
	writeMarkdownTable(&b, []string{"Validator", "Errors", "Warnings", "Info", "Total"}, validatorRows)

	b.WriteString("\n## Top Violation Codes\n\n")
	var codeRows [][]string
	for _, c := range r.TopCodes {
		codeRows = append(codeRows, []string{c.Code, fmt.Sprint(c.Count)})
	}
	writeMarkdownTable(&b, []string{"Code", "Count"}, codeRows)

	b.WriteString("\n## Top Files\n\n")
	var fileRows [][]string
	for _, f := range r.TopFiles {
		fileRows = append(fileRows, []string{f.FilePath, fmt.Sprint(f.Count)})
	}
	writeMarkdownTable(&b, []string{"File", "Count"}, fileRows)

	if len(r.Comparison) > 0 {
		b.WriteString("\n## Local vs CI\n\n")
		var cmpRows [][]string
		for _, c := range r.Comparison {
			cmpRows = append(cmpRows, []string{c.Validator, fmt.Sprint(c.Local), fmt.Sprint(c.CI), c.Delta})
		}
		writeMarkdownTable(&b, []string{"Validator", "Local", "CI", "Delta"}, cmpRows)
	}

	return b.String(), nil
}
