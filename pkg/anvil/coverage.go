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

// InsertCoverageHistory bulk-inserts the per-file coverage rows of one
// execution inside a single transaction.
func (s *Store) InsertCoverageHistory(ctx context.Context, rows []CoverageHistory) error {
	if len(rows) == 0 {
		return nil
	}
	return s.withWrite(ctx, "insert_coverage_history", func(tx *sql.Tx) error {
		return insertCoverageHistoryTx(ctx, tx, rows)
	})
}

func insertCoverageHistoryTx(ctx context.Context, tx *sql.Tx, rows []CoverageHistory) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO coverage_history
			(execution_id, file_path, timestamp, total_statements, covered_statements, coverage_percentage, missing_lines, space)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		missing, err := json.Marshal(r.MissingLines)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			r.ExecutionID, r.FilePath, r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.TotalStatements, r.CoveredStatements, r.CoveragePercentage, string(missing), string(r.Space),
		); err != nil {
			return err
		}
	}
	return nil
}

// UpsertCoverageSummary records the overall rollup for one execution.
func (s *Store) UpsertCoverageSummary(ctx context.Context, sum CoverageSummary) error {
	return s.withWrite(ctx, "upsert_coverage_summary", func(tx *sql.Tx) error {
		return upsertCoverageSummaryTx(ctx, tx, sum)
	})
}

func upsertCoverageSummaryTx(ctx context.Context, tx *sql.Tx, sum CoverageSummary) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO coverage_summaries
			(execution_id, timestamp, total_coverage, files_analyzed, total_statements, covered_statements, space)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(execution_id) DO UPDATE SET
			timestamp = excluded.timestamp,
			total_coverage = excluded.total_coverage,
			files_analyzed = excluded.files_analyzed,
			total_statements = excluded.total_statements,
			covered_statements = excluded.covered_statements,
			space = excluded.space`,
		sum.ExecutionID, sum.Timestamp.UTC().Format(time.RFC3339Nano), sum.TotalCoverage,
		sum.FilesAnalyzed, sum.TotalStatements, sum.CoveredStatements, string(sum.Space),
	)
	return err
}

// GetCoverageHistory returns coverage_history rows matching filter.
func (s *Store) GetCoverageHistory(ctx context.Context, filter CoverageFilter) ([]CoverageHistory, error) {
	var clauses []string
	var args []any
	if filter.ExecutionID != "" {
		clauses = append(clauses, "execution_id = ?")
		args = append(args, filter.ExecutionID)
	}
	if filter.FilePath != "" {
		clauses = append(clauses, "file_path = ?")
		args = append(args, filter.FilePath)
	}
	if filter.Space != "" && filter.Space != SpaceAll {
		clauses = append(clauses, "space = ?")
		args = append(args, string(filter.Space))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	query := `
		SELECT id, execution_id, file_path, timestamp, total_statements, covered_statements, coverage_percentage, missing_lines, space
		FROM coverage_history` + where + ` ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var out []CoverageHistory
	err := s.withRead(ctx, "get_coverage_history", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r CoverageHistory
			var ts, missing, space string
			if err := rows.Scan(&r.ID, &r.ExecutionID, &r.FilePath, &ts, &r.TotalStatements, &r.CoveredStatements, &r.CoveragePercentage, &missing, &space); err != nil {
				return err
			}
			r.Space = Space(space)
			if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(missing), &r.MissingLines); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// GetCoverageSummary looks up the rollup for one execution. Returns a
// KindNotFound *Error if absent.
func (s *Store) GetCoverageSummary(ctx context.Context, executionID string) (*CoverageSummary, error) {
	var sum CoverageSummary
	err := s.withRead(ctx, "get_coverage_summary", func(db *sql.DB) error {
		var ts, space string
		err := db.QueryRowContext(ctx, `
			SELECT execution_id, timestamp, total_coverage, files_analyzed, total_statements, covered_statements, space
			FROM coverage_summaries WHERE execution_id = ?`, executionID,
		).Scan(&sum.ExecutionID, &ts, &sum.TotalCoverage, &sum.FilesAnalyzed, &sum.TotalStatements, &sum.CoveredStatements, &space)
		if err == sql.ErrNoRows {
			return newError(KindNotFound, "get_coverage_summary", err)
		}
		if err != nil {
			return err
		}
		sum.Space = Space(space)
		sum.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}
