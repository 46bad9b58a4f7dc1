// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

// schemaVersion is the current anvil schema generation. Open checks the
// anvil_schema_version sentinel row against this value; a stored version
// lower than schemaVersion triggers the additive migrations below, a higher
// one is refused as KindCorruption (a newer binary wrote this file).
const schemaVersion = 1

// ddl is executed once, inside a single transaction, on a brand new
// database file. It is deliberately conservative: every table that is
// appended to over an entity's lifetime, except lint_violations (keyed only
// by an autoincrement id), carries an explicit primary or unique key so
// repeated ingestion is idempotent at the SQL layer, not just in
// application code.
const ddl = `
CREATE TABLE IF NOT EXISTS anvil_schema_version (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS execution_history (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_id        TEXT NOT NULL,
	entity_type      TEXT NOT NULL,
	execution_id     TEXT NOT NULL,
	timestamp        TEXT NOT NULL,
	status           TEXT NOT NULL,
	duration_seconds REAL NOT NULL DEFAULT 0,
	space            TEXT NOT NULL,
	metadata         TEXT NOT NULL DEFAULT '{}',
	UNIQUE (entity_id, execution_id)
);
CREATE INDEX IF NOT EXISTS idx_execution_history_entity ON execution_history (entity_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_execution_history_execution ON execution_history (execution_id);
CREATE INDEX IF NOT EXISTS idx_execution_history_space_ts ON execution_history (space, timestamp);

CREATE TABLE IF NOT EXISTS execution_rules (
	name            TEXT PRIMARY KEY,
	enabled         INTEGER NOT NULL DEFAULT 1,
	criteria        TEXT NOT NULL,
	window          INTEGER NOT NULL DEFAULT 0,
	threshold       REAL NOT NULL DEFAULT 0,
	groups          TEXT NOT NULL DEFAULT '[]',
	entity_type     TEXT NOT NULL,
	executor_config TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS entity_statistics (
	entity_id    TEXT NOT NULL,
	entity_type  TEXT NOT NULL,
	total_runs   INTEGER NOT NULL DEFAULT 0,
	passed       INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	failure_rate REAL NOT NULL DEFAULT 0,
	avg_duration REAL NOT NULL DEFAULT 0,
	last_run     TEXT NOT NULL,
	last_failure TEXT,
	PRIMARY KEY (entity_id)
);
CREATE INDEX IF NOT EXISTS idx_entity_statistics_failure_rate ON entity_statistics (failure_rate DESC);

CREATE TABLE IF NOT EXISTS lint_violations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	file_path    TEXT NOT NULL,
	line         INTEGER NOT NULL DEFAULT 0,
	column       INTEGER NOT NULL DEFAULT 0,
	severity     TEXT NOT NULL,
	code         TEXT NOT NULL,
	message      TEXT NOT NULL,
	validator    TEXT NOT NULL,
	timestamp    TEXT NOT NULL,
	space        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lint_violations_execution ON lint_violations (execution_id);
CREATE INDEX IF NOT EXISTS idx_lint_violations_file ON lint_violations (file_path, timestamp);

CREATE TABLE IF NOT EXISTS lint_summaries (
	execution_id     TEXT NOT NULL,
	timestamp        TEXT NOT NULL,
	validator        TEXT NOT NULL,
	files_scanned    INTEGER NOT NULL DEFAULT 0,
	total_violations INTEGER NOT NULL DEFAULT 0,
	errors           INTEGER NOT NULL DEFAULT 0,
	warnings         INTEGER NOT NULL DEFAULT 0,
	info             INTEGER NOT NULL DEFAULT 0,
	by_code          TEXT NOT NULL DEFAULT '{}',
	space            TEXT NOT NULL,
	UNIQUE (execution_id, validator)
);

CREATE TABLE IF NOT EXISTS code_quality_metrics (
	file_path               TEXT NOT NULL,
	validator               TEXT NOT NULL,
	total_scans             INTEGER NOT NULL DEFAULT 0,
	total_violations        INTEGER NOT NULL DEFAULT 0,
	avg_violations_per_scan REAL NOT NULL DEFAULT 0,
	most_common_code        TEXT NOT NULL DEFAULT '',
	last_scan               TEXT NOT NULL,
	last_violation          TEXT,
	PRIMARY KEY (file_path, validator)
);

CREATE TABLE IF NOT EXISTS coverage_history (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id        TEXT NOT NULL,
	file_path           TEXT NOT NULL,
	timestamp           TEXT NOT NULL,
	total_statements    INTEGER NOT NULL DEFAULT 0,
	covered_statements  INTEGER NOT NULL DEFAULT 0,
	coverage_percentage REAL NOT NULL DEFAULT 0,
	missing_lines       TEXT NOT NULL DEFAULT '[]',
	space               TEXT NOT NULL,
	UNIQUE (execution_id, file_path)
);
CREATE INDEX IF NOT EXISTS idx_coverage_history_file ON coverage_history (file_path, timestamp);

CREATE TABLE IF NOT EXISTS coverage_summaries (
	execution_id       TEXT PRIMARY KEY,
	timestamp          TEXT NOT NULL,
	total_coverage     REAL NOT NULL DEFAULT 0,
	files_analyzed     INTEGER NOT NULL DEFAULT 0,
	total_statements   INTEGER NOT NULL DEFAULT 0,
	covered_statements INTEGER NOT NULL DEFAULT 0,
	space              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_coverage_summaries_ts ON coverage_summaries (timestamp);

CREATE TABLE IF NOT EXISTS ci_workflow_runs (
	remote_run_id    TEXT PRIMARY KEY,
	workflow_name    TEXT NOT NULL,
	branch           TEXT NOT NULL,
	commit_sha       TEXT NOT NULL,
	status           TEXT NOT NULL,
	conclusion       TEXT NOT NULL DEFAULT '',
	started_at       TEXT NOT NULL,
	duration_seconds REAL NOT NULL DEFAULT 0,
	run_number       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_ci_workflow_runs_branch ON ci_workflow_runs (branch, started_at);

CREATE TABLE IF NOT EXISTS ci_workflow_jobs (
	remote_job_id     TEXT PRIMARY KEY,
	remote_run_id     TEXT NOT NULL REFERENCES ci_workflow_runs (remote_run_id),
	job_name          TEXT NOT NULL,
	status            TEXT NOT NULL,
	conclusion        TEXT NOT NULL DEFAULT '',
	started_at        TEXT NOT NULL,
	completed_at      TEXT,
	runner_os         TEXT NOT NULL DEFAULT '',
	log_content       TEXT,
	test_results_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_ci_workflow_jobs_run ON ci_workflow_jobs (remote_run_id);
`

// migrations holds additive schema changes keyed by the version they
// upgrade *from*. A fresh database is created at schemaVersion directly via
// ddl and never runs any of these.
var migrations = map[int]string{
	// Reserved for the first additive change. No migrations exist yet
	// because schemaVersion has never advanced past 1.
}
