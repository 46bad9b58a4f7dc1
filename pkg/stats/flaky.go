// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"context"
	"sort"

	"github.com/kraklabs/argos/pkg/anvil"
)

// Flaky returns the entities of entityType whose failure_rate is at least
// threshold and whose total_runs is at least max(2, window/2), capped at
// window itself so a caller asking for a short window (window<=1) isn't
// held to a higher bar than it requested, sorted by descending
// failure_rate with ties broken by descending total_runs (spec §4.5).
// entityType == "" matches every type. limit <= 0 means unlimited.
func Flaky(ctx context.Context, store *anvil.Store, entityType anvil.EntityType, threshold float64, window, limit int) ([]anvil.EntityStatistics, error) {
	minRuns := window / 2
	if minRuns < 2 {
		minRuns = 2
	}
	if window > 0 && minRuns > window {
		minRuns = window
	}

	candidates, err := store.ListEntityStatistics(ctx, entityType)
	if err != nil {
		return nil, err
	}

	out := candidates[:0:0]
	for _, st := range candidates {
		if st.FailureRate >= threshold && st.TotalRuns >= minRuns {
			out = append(out, st)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FailureRate != out[j].FailureRate {
			return out[i].FailureRate > out[j].FailureRate
		}
		return out[i].TotalRuns > out[j].TotalRuns
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
