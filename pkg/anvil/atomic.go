// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Tx is a write transaction scoped to one Atomic call. It exposes the
// subset of Store's write operations that pkg/ingest needs to compose into
// a single all-or-nothing commit (spec §4.3: Ingest opens one write
// transaction, performs all inserts, recomputes affected rollups, and
// commits as a unit).
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Atomic runs fn inside a single write transaction, serialized against
// every other writer in the process. If fn returns an error the whole
// transaction rolls back and the error is surfaced unchanged (wrapped in
// *Error if it is not already one).
func (s *Store) Atomic(ctx context.Context, op string, fn func(tx *Tx) error) error {
	return s.withWrite(ctx, op, func(sqlTx *sql.Tx) error {
		return fn(&Tx{ctx: ctx, tx: sqlTx})
	})
}

// InsertExecutionHistory is the Tx-scoped counterpart of
// Store.InsertExecutionHistory.
func (t *Tx) InsertExecutionHistory(h ExecutionHistory) (int64, error) {
	return insertExecutionHistoryTx(t.ctx, t.tx, h)
}

// InsertExecutionHistoryIgnoreDup is the Tx-scoped counterpart of
// Store.InsertExecutionHistoryIgnoreDup.
func (t *Tx) InsertExecutionHistoryIgnoreDup(h ExecutionHistory) (bool, error) {
	return insertExecutionHistoryIgnoreDupTx(t.ctx, t.tx, h)
}

// InsertLintViolations is the Tx-scoped counterpart of
// Store.InsertLintViolations.
func (t *Tx) InsertLintViolations(violations []LintViolation) error {
	return insertLintViolationsTx(t.ctx, t.tx, violations)
}

// UpsertLintSummary is the Tx-scoped counterpart of Store.UpsertLintSummary.
func (t *Tx) UpsertLintSummary(sum LintSummary) error {
	return upsertLintSummaryTx(t.ctx, t.tx, sum)
}

// UpsertCodeQualityMetrics is the Tx-scoped counterpart of
// Store.UpsertCodeQualityMetrics.
func (t *Tx) UpsertCodeQualityMetrics(m CodeQualityMetrics) error {
	return upsertCodeQualityMetricsTx(t.ctx, t.tx, m)
}

// InsertCoverageHistory is the Tx-scoped counterpart of
// Store.InsertCoverageHistory.
func (t *Tx) InsertCoverageHistory(rows []CoverageHistory) error {
	return insertCoverageHistoryTx(t.ctx, t.tx, rows)
}

// UpsertCoverageSummary is the Tx-scoped counterpart of
// Store.UpsertCoverageSummary.
func (t *Tx) UpsertCoverageSummary(sum CoverageSummary) error {
	return upsertCoverageSummaryTx(t.ctx, t.tx, sum)
}

// UpsertCIWorkflowRun is the Tx-scoped counterpart of
// Store.UpsertCIWorkflowRun.
func (t *Tx) UpsertCIWorkflowRun(r CIWorkflowRun) error {
	return upsertCIWorkflowRunTx(t.ctx, t.tx, r)
}

// UpsertCIWorkflowJob is the Tx-scoped counterpart of
// Store.UpsertCIWorkflowJob.
func (t *Tx) UpsertCIWorkflowJob(j CIWorkflowJob) error {
	return upsertCIWorkflowJobTx(t.ctx, t.tx, j)
}

// UpsertEntityStatistics is the Tx-scoped counterpart of
// Store.UpsertEntityStatistics.
func (t *Tx) UpsertEntityStatistics(st EntityStatistics) error {
	return upsertEntityStatisticsTx(t.ctx, t.tx, st)
}

// ExecutionHistoryForEntity returns every execution_history row for
// entityID, newest first, read within this transaction. pkg/stats uses
// this to recompute EntityStatistics from the post-insert state before
// the transaction commits.
func (t *Tx) ExecutionHistoryForEntity(entityID string) ([]ExecutionHistory, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT id, entity_id, entity_type, execution_id, timestamp, status, duration_seconds, space, metadata
		FROM execution_history WHERE entity_id = ? ORDER BY timestamp DESC`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExecutionHistory
	for rows.Next() {
		var h ExecutionHistory
		var ts, meta, entityType, status, space string
		if err := rows.Scan(&h.ID, &h.EntityID, &entityType, &h.ExecutionID, &ts, &status, &h.DurationSeconds, &space, &meta); err != nil {
			return nil, err
		}
		h.EntityType = EntityType(entityType)
		h.Status = Status(status)
		h.Space = Space(space)
		if h.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &h.Metadata); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
