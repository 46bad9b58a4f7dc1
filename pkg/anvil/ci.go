// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// UpsertCIWorkflowRun records or updates a remote CI run, keyed by
// remote_run_id (spec §4.6: re-ingesting an in-progress run's conclusion
// must update the existing row, not create a duplicate).
func (s *Store) UpsertCIWorkflowRun(ctx context.Context, r CIWorkflowRun) error {
	return s.withWrite(ctx, "upsert_ci_workflow_run", func(tx *sql.Tx) error {
		return upsertCIWorkflowRunTx(ctx, tx, r)
	})
}

func upsertCIWorkflowRunTx(ctx context.Context, tx *sql.Tx, r CIWorkflowRun) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ci_workflow_runs
			(remote_run_id, workflow_name, branch, commit_sha, status, conclusion, started_at, duration_seconds, run_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_run_id) DO UPDATE SET
			status = excluded.status,
			conclusion = excluded.conclusion,
			duration_seconds = excluded.duration_seconds`,
		r.RemoteRunID, r.WorkflowName, r.Branch, r.CommitSHA, r.Status, r.Conclusion,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.DurationSeconds, r.RunNumber,
	)
	return err
}

// UpsertCIWorkflowJob records or updates a remote CI job, keyed by
// remote_job_id.
func (s *Store) UpsertCIWorkflowJob(ctx context.Context, j CIWorkflowJob) error {
	return s.withWrite(ctx, "upsert_ci_workflow_job", func(tx *sql.Tx) error {
		return upsertCIWorkflowJobTx(ctx, tx, j)
	})
}

func upsertCIWorkflowJobTx(ctx context.Context, tx *sql.Tx, j CIWorkflowJob) error {
	var completedAt any
	if j.CompletedAt != nil {
		completedAt = j.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ci_workflow_jobs
			(remote_job_id, remote_run_id, job_name, status, conclusion, started_at, completed_at, runner_os, log_content, test_results_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_job_id) DO UPDATE SET
			status = excluded.status,
			conclusion = excluded.conclusion,
			completed_at = excluded.completed_at,
			log_content = excluded.log_content,
			test_results_json = excluded.test_results_json`,
		j.RemoteJobID, j.RemoteRunID, j.JobName, j.Status, j.Conclusion,
		j.StartedAt.UTC().Format(time.RFC3339Nano), completedAt, j.RunnerOS, j.LogContent, j.TestResultsJSON,
	)
	return err
}

// GetCIWorkflowRuns returns ci_workflow_runs rows matching filter, newest
// first.
func (s *Store) GetCIWorkflowRuns(ctx context.Context, filter CIFilter) ([]CIWorkflowRun, error) {
	var clauses []string
	var args []any
	if filter.WorkflowName != "" {
		clauses = append(clauses, "workflow_name = ?")
		args = append(args, filter.WorkflowName)
	}
	if filter.Branch != "" {
		clauses = append(clauses, "branch = ?")
		args = append(args, filter.Branch)
	}
	if filter.Conclusion != "" {
		clauses = append(clauses, "conclusion = ?")
		args = append(args, filter.Conclusion)
	}
	if filter.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	query := `
		SELECT remote_run_id, workflow_name, branch, commit_sha, status, conclusion, started_at, duration_seconds, run_number
		FROM ci_workflow_runs` + where + ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var out []CIWorkflowRun
	err := s.withRead(ctx, "get_ci_workflow_runs", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r CIWorkflowRun
			var ts string
			if err := rows.Scan(&r.RemoteRunID, &r.WorkflowName, &r.Branch, &r.CommitSHA, &r.Status, &r.Conclusion, &ts, &r.DurationSeconds, &r.RunNumber); err != nil {
				return err
			}
			if r.StartedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// GetCIWorkflowJobs returns every job belonging to one remote run.
func (s *Store) GetCIWorkflowJobs(ctx context.Context, remoteRunID string) ([]CIWorkflowJob, error) {
	var out []CIWorkflowJob
	err := s.withRead(ctx, "get_ci_workflow_jobs", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT remote_job_id, remote_run_id, job_name, status, conclusion, started_at, completed_at, runner_os, log_content, test_results_json
			FROM ci_workflow_jobs WHERE remote_run_id = ? ORDER BY started_at`, remoteRunID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var j CIWorkflowJob
			var startedAt string
			var completedAt sql.NullString
			if err := rows.Scan(&j.RemoteJobID, &j.RemoteRunID, &j.JobName, &j.Status, &j.Conclusion, &startedAt, &completedAt, &j.RunnerOS, &j.LogContent, &j.TestResultsJSON); err != nil {
				return err
			}
			if j.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
				return err
			}
			if completedAt.Valid {
				t, err := time.Parse(time.RFC3339Nano, completedAt.String)
				if err != nil {
					return err
				}
				j.CompletedAt = &t
			}
			out = append(out, j)
		}
		return rows.Err()
	})
	return out, err
}
