// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"github.com/kraklabs/argos/pkg/anvil"
)

// Compute rolls up history into one EntityStatistics row (spec §3.3
// invariant 6). history must be sorted newest-first (the order
// anvil.Tx.ExecutionHistoryForEntity and anvil.GetExecutionHistory already
// return); Compute itself never sorts or mutates its input.
//
// window limits the rollup to the most recent window rows; window <= 0
// means all-time. An empty history slice yields the zero-valued
// EntityStatistics for entityID.
func Compute(entityID string, history []anvil.ExecutionHistory, window int) anvil.EntityStatistics {
	st := anvil.EntityStatistics{EntityID: entityID}
	if len(history) == 0 {
		return st
	}

	rows := history
	if window > 0 && window < len(rows) {
		rows = rows[:window]
	}

	st.EntityType = rows[0].EntityType
	st.LastRun = rows[0].Timestamp

	var totalDuration float64
	for _, h := range rows {
		st.TotalRuns++
		totalDuration += h.DurationSeconds
		switch h.Status {
		case anvil.StatusPassed:
			st.Passed++
		case anvil.StatusFailed, anvil.StatusError:
			st.Failed++
			if st.LastFailure == nil || h.Timestamp.After(*st.LastFailure) {
				t := h.Timestamp
				st.LastFailure = &t
			}
		case anvil.StatusSkipped:
			st.Skipped++
		}
		if h.Timestamp.After(st.LastRun) {
			st.LastRun = h.Timestamp
		}
	}

	if st.TotalRuns > 0 {
		st.FailureRate = float64(st.Failed) / float64(st.TotalRuns)
		st.AvgDuration = totalDuration / float64(st.TotalRuns)
	}
	return st
}
