// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// InsertExecutionHistory records one entity's outcome for one execution.
// It is idempotent on (entity_id, execution_id): a repeat insert with the
// same pair is rejected as KindConstraint rather than silently overwriting
// history (spec §3.2, §4.1).
func (s *Store) InsertExecutionHistory(ctx context.Context, h ExecutionHistory) (int64, error) {
	var id int64
	err := s.withWrite(ctx, "insert_execution_history", func(tx *sql.Tx) error {
		var err error
		id, err = insertExecutionHistoryTx(ctx, tx, h)
		return err
	})
	return id, err
}

func insertExecutionHistoryTx(ctx context.Context, tx *sql.Tx, h ExecutionHistory) (int64, error) {
	meta, err := json.Marshal(h.Metadata)
	if err != nil {
		return 0, newError(KindConstraint, "insert_execution_history", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO execution_history
			(entity_id, entity_type, execution_id, timestamp, status, duration_seconds, space, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.EntityID, string(h.EntityType), h.ExecutionID, h.Timestamp.UTC().Format(time.RFC3339Nano),
		string(h.Status), h.DurationSeconds, string(h.Space), string(meta),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertExecutionHistoryIgnoreDup behaves like InsertExecutionHistory
// except a repeat insert on the same (entity_id, execution_id) pair is
// silently skipped rather than rejected, and reports whether a row was
// actually inserted. CI ingestion uses this to dedupe a re-synced job's
// log (spec §3.3 invariant 2) without a duplicate aborting the whole
// sync transaction the way the strict InsertExecutionHistory would.
func (s *Store) InsertExecutionHistoryIgnoreDup(ctx context.Context, h ExecutionHistory) (bool, error) {
	var inserted bool
	err := s.withWrite(ctx, "insert_execution_history_ignore_dup", func(tx *sql.Tx) error {
		var err error
		inserted, err = insertExecutionHistoryIgnoreDupTx(ctx, tx, h)
		return err
	})
	return inserted, err
}

func insertExecutionHistoryIgnoreDupTx(ctx context.Context, tx *sql.Tx, h ExecutionHistory) (bool, error) {
	meta, err := json.Marshal(h.Metadata)
	if err != nil {
		return false, newError(KindConstraint, "insert_execution_history_ignore_dup", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO execution_history
			(entity_id, entity_type, execution_id, timestamp, status, duration_seconds, space, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.EntityID, string(h.EntityType), h.ExecutionID, h.Timestamp.UTC().Format(time.RFC3339Nano),
		string(h.Status), h.DurationSeconds, string(h.Space), string(meta),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetExecutionHistory returns execution_history rows matching filter,
// newest first.
func (s *Store) GetExecutionHistory(ctx context.Context, filter HistoryFilter) ([]ExecutionHistory, error) {
	where, args := buildHistoryWhere(filter)
	query := `
		SELECT id, entity_id, entity_type, execution_id, timestamp, status, duration_seconds, space, metadata
		FROM execution_history` + where + `
		ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var out []ExecutionHistory
	err := s.withRead(ctx, "get_execution_history", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var h ExecutionHistory
			var ts, meta, entityType, status, space string
			if err := rows.Scan(&h.ID, &h.EntityID, &entityType, &h.ExecutionID, &ts, &status, &h.DurationSeconds, &space, &meta); err != nil {
				return err
			}
			h.EntityType = EntityType(entityType)
			h.Status = Status(status)
			h.Space = Space(space)
			if h.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(meta), &h.Metadata); err != nil {
				return err
			}
			out = append(out, h)
		}
		return rows.Err()
	})
	return out, err
}

func buildHistoryWhere(filter HistoryFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.EntityID != "" {
		clauses = append(clauses, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	if filter.EntityType != "" {
		clauses = append(clauses, "entity_type = ?")
		args = append(args, string(filter.EntityType))
	}
	if filter.ExecutionID != "" {
		clauses = append(clauses, "execution_id = ?")
		args = append(args, filter.ExecutionID)
	}
	if filter.Space != "" && filter.Space != SpaceAll {
		clauses = append(clauses, "space = ?")
		args = append(args, string(filter.Space))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.RFC3339Nano))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
