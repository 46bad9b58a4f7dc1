// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// UpsertEntityStatistics replaces the rollup row for one entity. Callers
// (pkg/stats) compute the aggregate in application code and write the
// whole row atomically; anvil does not recompute statistics itself.
func (s *Store) UpsertEntityStatistics(ctx context.Context, st EntityStatistics) error {
	return s.withWrite(ctx, "upsert_entity_statistics", func(tx *sql.Tx) error {
		return upsertEntityStatisticsTx(ctx, tx, st)
	})
}

func upsertEntityStatisticsTx(ctx context.Context, tx *sql.Tx, st EntityStatistics) error {
	var lastFailure any
	if st.LastFailure != nil {
		lastFailure = st.LastFailure.UTC().Format(time.RFC3339Nano)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entity_statistics
			(entity_id, entity_type, total_runs, passed, failed, skipped, failure_rate, avg_duration, last_run, last_failure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			total_runs = excluded.total_runs,
			passed = excluded.passed,
			failed = excluded.failed,
			skipped = excluded.skipped,
			failure_rate = excluded.failure_rate,
			avg_duration = excluded.avg_duration,
			last_run = excluded.last_run,
			last_failure = excluded.last_failure`,
		st.EntityID, string(st.EntityType), st.TotalRuns, st.Passed, st.Failed, st.Skipped,
		st.FailureRate, st.AvgDuration, st.LastRun.UTC().Format(time.RFC3339Nano), lastFailure,
	)
	return err
}

// GetEntityStatistics looks up the rollup for one entity.
func (s *Store) GetEntityStatistics(ctx context.Context, entityID string) (*EntityStatistics, error) {
	var st EntityStatistics
	err := s.withRead(ctx, "get_entity_statistics", func(db *sql.DB) error {
		var entityType, lastRun string
		var lastFailure sql.NullString
		err := db.QueryRowContext(ctx, `
			SELECT entity_id, entity_type, total_runs, passed, failed, skipped, failure_rate, avg_duration, last_run, last_failure
			FROM entity_statistics WHERE entity_id = ?`, entityID,
		).Scan(&st.EntityID, &entityType, &st.TotalRuns, &st.Passed, &st.Failed, &st.Skipped,
			&st.FailureRate, &st.AvgDuration, &lastRun, &lastFailure)
		if errors.Is(err, sql.ErrNoRows) {
			return newError(KindNotFound, "get_entity_statistics", err)
		}
		if err != nil {
			return err
		}
		st.EntityType = EntityType(entityType)
		if st.LastRun, err = time.Parse(time.RFC3339Nano, lastRun); err != nil {
			return err
		}
		if lastFailure.Valid {
			t, err := time.Parse(time.RFC3339Nano, lastFailure.String)
			if err != nil {
				return err
			}
			st.LastFailure = &t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListEntityStatistics returns every known entity of entityType (or every
// entity regardless of type when entityType is ""), ordered by entity_id.
// This is the universe pkg/rules' "all" criteria selects from (spec §4.4).
func (s *Store) ListEntityStatistics(ctx context.Context, entityType EntityType) ([]EntityStatistics, error) {
	query := `
		SELECT entity_id, entity_type, total_runs, passed, failed, skipped, failure_rate, avg_duration, last_run, last_failure
		FROM entity_statistics`
	args := []any{}
	if entityType != "" {
		query += " WHERE entity_type = ?"
		args = append(args, string(entityType))
	}
	query += " ORDER BY entity_id"

	var out []EntityStatistics
	err := s.withRead(ctx, "list_entity_statistics", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var st EntityStatistics
			var entityType, lastRun string
			var lastFailure sql.NullString
			if err := rows.Scan(&st.EntityID, &entityType, &st.TotalRuns, &st.Passed, &st.Failed, &st.Skipped,
				&st.FailureRate, &st.AvgDuration, &lastRun, &lastFailure); err != nil {
				return err
			}
			st.EntityType = EntityType(entityType)
			if st.LastRun, err = time.Parse(time.RFC3339Nano, lastRun); err != nil {
				return err
			}
			if lastFailure.Valid {
				t, err := time.Parse(time.RFC3339Nano, lastFailure.String)
				if err != nil {
					return err
				}
				st.LastFailure = &t
			}
			out = append(out, st)
		}
		return rows.Err()
	})
	return out, err
}

// GetFlaky returns entities whose failure_rate is in (0, 1) — i.e. they
// have both passed and failed historically — ordered by failure_rate
// descending (spec §3.2, §5). Entities that always fail (failure_rate 1)
// are not returned.
func (s *Store) GetFlaky(ctx context.Context, entityType EntityType, limit int) ([]EntityStatistics, error) {
	query := `
		SELECT entity_id, entity_type, total_runs, passed, failed, skipped, failure_rate, avg_duration, last_run, last_failure
		FROM entity_statistics
		WHERE failure_rate > 0 AND failure_rate < 1`
	args := []any{}
	if entityType != "" {
		query += " AND entity_type = ?"
		args = append(args, string(entityType))
	}
	query += " ORDER BY failure_rate DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var out []EntityStatistics
	err := s.withRead(ctx, "get_flaky", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var st EntityStatistics
			var entityType, lastRun string
			var lastFailure sql.NullString
			if err := rows.Scan(&st.EntityID, &entityType, &st.TotalRuns, &st.Passed, &st.Failed, &st.Skipped,
				&st.FailureRate, &st.AvgDuration, &lastRun, &lastFailure); err != nil {
				return err
			}
			st.EntityType = EntityType(entityType)
			if st.LastRun, err = time.Parse(time.RFC3339Nano, lastRun); err != nil {
				return err
			}
			if lastFailure.Valid {
				t, err := time.Parse(time.RFC3339Nano, lastFailure.String)
				if err != nil {
					return err
				}
				st.LastFailure = &t
			}
			out = append(out, st)
		}
		return rows.Err()
	})
	return out, err
}
