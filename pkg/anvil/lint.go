// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// InsertLintViolations bulk-inserts the violations of one lint run inside a
// single transaction (spec §4.2 C3 atomic ingest).
func (s *Store) InsertLintViolations(ctx context.Context, violations []LintViolation) error {
	if len(violations) == 0 {
		return nil
	}
	return s.withWrite(ctx, "insert_lint_violations", func(tx *sql.Tx) error {
		return insertLintViolationsTx(ctx, tx, violations)
	})
}

func insertLintViolationsTx(ctx context.Context, tx *sql.Tx, violations []LintViolation) error {
	if len(violations) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lint_violations
			(execution_id, file_path, line, column, severity, code, message, validator, timestamp, space)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range violations {
		if _, err := stmt.ExecContext(ctx,
			v.ExecutionID, v.FilePath, v.Line, v.Column, string(v.Severity), v.Code, v.Message,
			v.Validator, v.Timestamp.UTC().Format(time.RFC3339Nano), string(v.Space),
		); err != nil {
			return err
		}
	}
	return nil
}

// UpsertLintSummary records the rollup for one (execution_id, validator)
// pair.
func (s *Store) UpsertLintSummary(ctx context.Context, sum LintSummary) error {
	return s.withWrite(ctx, "upsert_lint_summary", func(tx *sql.Tx) error {
		return upsertLintSummaryTx(ctx, tx, sum)
	})
}

func upsertLintSummaryTx(ctx context.Context, tx *sql.Tx, sum LintSummary) error {
	byCode, err := json.Marshal(sum.ByCode)
	if err != nil {
		return newError(KindConstraint, "upsert_lint_summary", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lint_summaries
			(execution_id, timestamp, validator, files_scanned, total_violations, errors, warnings, info, by_code, space)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(execution_id, validator) DO UPDATE SET
			timestamp = excluded.timestamp,
			files_scanned = excluded.files_scanned,
			total_violations = excluded.total_violations,
			errors = excluded.errors,
			warnings = excluded.warnings,
			info = excluded.info,
			by_code = excluded.by_code,
			space = excluded.space`,
		sum.ExecutionID, sum.Timestamp.UTC().Format(time.RFC3339Nano), sum.Validator, sum.FilesScanned,
		sum.TotalViolations, sum.Errors, sum.Warnings, sum.Info, string(byCode), string(sum.Space),
	)
	return err
}

// UpsertCodeQualityMetrics folds one scan's result into the running
// per-(file,validator) rollup (spec §3.2: total_scans and
// avg_violations_per_scan accumulate across every scan of a file, they are
// not the latest scan's values). Callers pass this scan's own counts —
// TotalScans is always 1, TotalViolations is this scan's violation count —
// and the ON CONFLICT clause adds them onto the existing row's totals and
// recomputes the average from the new cumulative totals.
func (s *Store) UpsertCodeQualityMetrics(ctx context.Context, m CodeQualityMetrics) error {
	return s.withWrite(ctx, "upsert_code_quality_metrics", func(tx *sql.Tx) error {
		return upsertCodeQualityMetricsTx(ctx, tx, m)
	})
}

func upsertCodeQualityMetricsTx(ctx context.Context, tx *sql.Tx, m CodeQualityMetrics) error {
	var lastViolation any
	if m.LastViolation != nil {
		lastViolation = m.LastViolation.UTC().Format(time.RFC3339Nano)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO code_quality_metrics
			(file_path, validator, total_scans, total_violations, avg_violations_per_scan, most_common_code, last_scan, last_violation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path, validator) DO UPDATE SET
			total_scans = code_quality_metrics.total_scans + excluded.total_scans,
			total_violations = code_quality_metrics.total_violations + excluded.total_violations,
			avg_violations_per_scan = CAST(code_quality_metrics.total_violations + excluded.total_violations AS REAL)
				/ (code_quality_metrics.total_scans + excluded.total_scans),
			most_common_code = excluded.most_common_code,
			last_scan = excluded.last_scan,
			last_violation = excluded.last_violation`,
		m.FilePath, m.Validator, m.TotalScans, m.TotalViolations, m.AvgViolationsPerScan,
		m.MostCommonCode, m.LastScan.UTC().Format(time.RFC3339Nano), lastViolation,
	)
	return err
}

// GetLintViolations returns lint_violations rows matching filter.
func (s *Store) GetLintViolations(ctx context.Context, filter LintFilter) ([]LintViolation, error) {
	where, args := buildLintWhere(filter)
	query := `
		SELECT id, execution_id, file_path, line, column, severity, code, message, validator, timestamp, space
		FROM lint_violations` + where + `
		ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var out []LintViolation
	err := s.withRead(ctx, "get_lint_violations", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v LintViolation
			var ts, severity, space string
			if err := rows.Scan(&v.ID, &v.ExecutionID, &v.FilePath, &v.Line, &v.Column, &severity, &v.Code, &v.Message, &v.Validator, &ts, &space); err != nil {
				return err
			}
			v.Severity = Severity(severity)
			v.Space = Space(space)
			if v.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	return out, err
}

// GetLintSummaries returns lint_summaries rows matching filter. Only
// ExecutionID, Validator, Space, Since and Limit are honored; FilePath and
// Severity narrow violations, not summaries.
func (s *Store) GetLintSummaries(ctx context.Context, filter LintFilter) ([]LintSummary, error) {
	var clauses []string
	var args []any
	if filter.ExecutionID != "" {
		clauses = append(clauses, "execution_id = ?")
		args = append(args, filter.ExecutionID)
	}
	if filter.Validator != "" {
		clauses = append(clauses, "validator = ?")
		args = append(args, filter.Validator)
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
		where = " WHERE "
		for i, c := range clauses {
			if i > 0 {
				where += " AND "
			}
			where += c
		}
	}
	query := `
		SELECT execution_id, timestamp, validator, files_scanned, total_violations, errors, warnings, info, by_code, space
		FROM lint_summaries` + where + `
		ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var out []LintSummary
	err := s.withRead(ctx, "get_lint_summaries", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var sum LintSummary
			var ts, space, byCode string
			if err := rows.Scan(&sum.ExecutionID, &ts, &sum.Validator, &sum.FilesScanned, &sum.TotalViolations,
				&sum.Errors, &sum.Warnings, &sum.Info, &byCode, &space); err != nil {
				return err
			}
			sum.Space = Space(space)
			if sum.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(byCode), &sum.ByCode); err != nil {
				return err
			}
			out = append(out, sum)
		}
		return rows.Err()
	})
	return out, err
}

func buildLintWhere(filter LintFilter) (string, []any) {
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
	if filter.Validator != "" {
		clauses = append(clauses, "validator = ?")
		args = append(args, filter.Validator)
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Space != "" && filter.Space != SpaceAll {
		clauses = append(clauses, "space = ?")
		args = append(args, string(filter.Space))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE "
	for i, c := range clauses {
		if i > 0 {
			where += " AND "
		}
		where += c
	}
	return where, args
}
