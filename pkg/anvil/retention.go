// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"time"
)

// PruneExecutionHistoryOlderThan deletes execution_history rows older than
// days and returns the count removed. Deletes are otherwise forbidden on
// this table (spec §3.3 invariant 8): this is the one sanctioned path, and
// it never touches entity_statistics directly — callers are expected to
// recompute affected rollups with pkg/stats after pruning, since the
// invariant requires recomputation rather than deletion of aggregates.
func (s *Store) PruneExecutionHistoryOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339Nano)

	var n int64
	err := s.withWrite(ctx, "prune_execution_history", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM execution_history WHERE timestamp < ?`, cutoff)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// DistinctEntityIDsOlderThan returns the entity_ids that had at least one
// execution_history row older than days, just before a prune. pkg/stats
// uses this to know which EntityStatistics rows need recomputation after
// PruneExecutionHistoryOlderThan runs.
func (s *Store) DistinctEntityIDsOlderThan(ctx context.Context, days int) ([]string, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339Nano)

	var out []string
	err := s.withRead(ctx, "distinct_entity_ids_older_than", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT DISTINCT entity_id FROM execution_history WHERE timestamp < ?`, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
		}
		return rows.Err()
	})
	return out, err
}
