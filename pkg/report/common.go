// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import "sort"

// TrendPoint is one day's rollup in a daily trend series.
type TrendPoint struct {
	Date    string  `json:"date"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Skipped int     `json:"skipped"`
	Value   float64 `json:"value,omitempty"` // used by coverage trend points in place of pass/fail/skip
}

// sortedKeys returns m's keys in ascending order, so map-driven output is
// deterministic (spec §4.9: "identical inputs produce byte-identical
// outputs").
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
