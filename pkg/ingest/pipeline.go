// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/parsers"
	"github.com/kraklabs/argos/pkg/stats"
)

// Kind names the batch being ingested; it labels the Prometheus metrics
// and picks the log event prefix.
type Kind string

const (
	KindTestReport Kind = "test_report"
	KindLint       Kind = "lint"
	KindCoverage   Kind = "coverage"
	KindCIRun      Kind = "ci_run"
)

// Context is the caller-supplied tagging for one ingest batch (spec §4.3).
type Context struct {
	ExecutionID string
	Space       anvil.Space
	Timestamp   time.Time
	Metadata    map[string]string
}

// Pipeline orchestrates pkg/parsers output into pkg/anvil writes.
type Pipeline struct {
	store  *anvil.Store
	logger *slog.Logger
}

// New constructs a Pipeline. A nil logger falls back to slog.Default().
func New(store *anvil.Store, logger *slog.Logger) *Pipeline {
	ingestMetrics.init()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: store, logger: logger}
}

// Result summarizes one committed ingest batch.
type Result struct {
	ExecutionID      string
	RowsInserted     int
	EntitiesAffected []string
}

func (p *Pipeline) observe(kind Kind, start time.Time, err error) {
	ingestMetrics.batchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		ingestMetrics.batchErrors.WithLabelValues(string(kind)).Inc()
		return
	}
	ingestMetrics.batchesTotal.WithLabelValues(string(kind)).Inc()
}

// recomputeEntities recomputes and upserts EntityStatistics for every
// entityID in ids, reading the post-insert history within tx (spec §4.5:
// "after each successful ingest, the set of entity ids touched by the
// ingest is recomputed, not all entities").
func recomputeEntities(tx *anvil.Tx, ids map[string]struct{}) error {
	for entityID := range ids {
		history, err := tx.ExecutionHistoryForEntity(entityID)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			continue
		}
		st := stats.Compute(entityID, history, 0)
		if err := tx.UpsertEntityStatistics(st); err != nil {
			return err
		}
		ingestMetrics.entitiesRecomputed.Inc()
	}
	return nil
}

// IngestTestReport writes one TestResult row per result plus the
// recomputed EntityStatistics for every entity touched, as a single
// transaction (spec §4.3, §4.5; testable property #1, §8.2 scenario S1).
func (p *Pipeline) IngestTestReport(ctx context.Context, ictx Context, results []parsers.TestResult) (*Result, error) {
	start := time.Now()
	p.logger.Info("ingest.test_report.start", "execution_id", ictx.ExecutionID, "rows", len(results))

	res := &Result{ExecutionID: ictx.ExecutionID}
	touched := make(map[string]struct{})

	err := p.store.Atomic(ctx, "ingest_test_report", func(tx *anvil.Tx) error {
		for _, r := range results {
			if _, err := tx.InsertExecutionHistory(anvil.ExecutionHistory{
				EntityID:        r.NodeID,
				EntityType:      anvil.EntityTest,
				ExecutionID:     ictx.ExecutionID,
				Timestamp:       ictx.Timestamp,
				Status:          testOutcomeToStatus(r.Outcome),
				DurationSeconds: r.DurationSeconds,
				Space:           ictx.Space,
				Metadata:        ictx.Metadata,
			}); err != nil {
				return err
			}
			res.RowsInserted++
			touched[r.NodeID] = struct{}{}
		}
		if err := recomputeEntities(tx, touched); err != nil {
			return err
		}
		return nil
	})

	if err == nil {
		ingestMetrics.rowsIngested.WithLabelValues(string(KindTestReport)).Add(float64(res.RowsInserted))
		for id := range touched {
			res.EntitiesAffected = append(res.EntitiesAffected, id)
		}
	}
	p.observe(KindTestReport, start, err)
	if err != nil {
		p.logger.Error("ingest.test_report.failed", "execution_id", ictx.ExecutionID, "error", err)
		return nil, err
	}
	p.logger.Info("ingest.test_report.done", "execution_id", ictx.ExecutionID, "rows", res.RowsInserted)
	return res, nil
}

// IngestLint writes the violations and summary for one (execution_id,
// validator) plus the per-file CodeQualityMetrics rollup, as a single
// transaction.
func (p *Pipeline) IngestLint(ctx context.Context, ictx Context, validator string, violations []parsers.LintViolation, summary parsers.LintSummary) (*Result, error) {
	start := time.Now()
	p.logger.Info("ingest.lint.start", "execution_id", ictx.ExecutionID, "validator", validator, "violations", len(violations))

	res := &Result{ExecutionID: ictx.ExecutionID}
	byFile := make(map[string][]parsers.LintViolation)

	err := p.store.Atomic(ctx, "ingest_lint", func(tx *anvil.Tx) error {
		rows := make([]anvil.LintViolation, 0, len(violations))
		for _, v := range violations {
			rows = append(rows, anvil.LintViolation{
				ExecutionID: ictx.ExecutionID,
				FilePath:    v.FilePath,
				Line:        v.Line,
				Column:      v.Column,
				Severity:    anvil.Severity(v.Severity),
				Code:        v.Code,
				Message:     v.Message,
				Validator:   validator,
				Timestamp:   ictx.Timestamp,
				Space:       ictx.Space,
			})
			byFile[v.FilePath] = append(byFile[v.FilePath], v)
		}
		if err := tx.InsertLintViolations(rows); err != nil {
			return err
		}
		res.RowsInserted = len(rows)

		if err := tx.UpsertLintSummary(anvil.LintSummary{
			ExecutionID:     ictx.ExecutionID,
			Timestamp:       ictx.Timestamp,
			Validator:       validator,
			FilesScanned:    summary.FilesScanned,
			TotalViolations: summary.TotalViolations,
			Errors:          summary.Errors,
			Warnings:        summary.Warnings,
			Info:            summary.Info,
			ByCode:          summary.ByCode,
			Space:           ictx.Space,
		}); err != nil {
			return err
		}

		for filePath, fileViolations := range byFile {
			codeCounts := make(map[string]int)
			for _, v := range fileViolations {
				codeCounts[v.Code]++
			}
			if err := tx.UpsertCodeQualityMetrics(anvil.CodeQualityMetrics{
				FilePath:             filePath,
				Validator:            validator,
				TotalScans:           1,
				TotalViolations:      len(fileViolations),
				AvgViolationsPerScan: float64(len(fileViolations)),
				MostCommonCode:       mostCommonCode(codeCounts),
				LastScan:             ictx.Timestamp,
				LastViolation:        &ictx.Timestamp,
			}); err != nil {
				return err
			}
			res.EntitiesAffected = append(res.EntitiesAffected, filePath)
		}
		return nil
	})

	if err == nil {
		ingestMetrics.rowsIngested.WithLabelValues(string(KindLint)).Add(float64(res.RowsInserted))
	}
	p.observe(KindLint, start, err)
	if err != nil {
		p.logger.Error("ingest.lint.failed", "execution_id", ictx.ExecutionID, "error", err)
		return nil, err
	}
	p.logger.Info("ingest.lint.done", "execution_id", ictx.ExecutionID, "violations", res.RowsInserted)
	return res, nil
}

// IngestCoverage writes per-file CoverageHistory rows plus the overall
// CoverageSummary, as a single transaction (spec §3.3 invariant 5:
// total_coverage is the recomputed file-level aggregate, already derived
// by pkg/parsers before this call).
func (p *Pipeline) IngestCoverage(ctx context.Context, ictx Context, data *parsers.CoverageData) (*Result, error) {
	start := time.Now()
	p.logger.Info("ingest.coverage.start", "execution_id", ictx.ExecutionID, "files", len(data.PerFile))

	res := &Result{ExecutionID: ictx.ExecutionID}

	err := p.store.Atomic(ctx, "ingest_coverage", func(tx *anvil.Tx) error {
		rows := make([]anvil.CoverageHistory, 0, len(data.PerFile))
		for _, f := range data.PerFile {
			rows = append(rows, anvil.CoverageHistory{
				ExecutionID:        ictx.ExecutionID,
				FilePath:           f.FilePath,
				Timestamp:          ictx.Timestamp,
				TotalStatements:    f.TotalStatements,
				CoveredStatements:  f.CoveredStatements,
				CoveragePercentage: f.CoveragePercentage,
				MissingLines:       f.MissingLines,
				Space:              ictx.Space,
			})
			res.EntitiesAffected = append(res.EntitiesAffected, f.FilePath)
		}
		if err := tx.InsertCoverageHistory(rows); err != nil {
			return err
		}
		res.RowsInserted = len(rows)

		return tx.UpsertCoverageSummary(anvil.CoverageSummary{
			ExecutionID:       ictx.ExecutionID,
			Timestamp:         ictx.Timestamp,
			TotalCoverage:     data.TotalCoverage,
			FilesAnalyzed:     data.FilesAnalyzed,
			TotalStatements:   data.TotalStatements,
			CoveredStatements: data.CoveredStatements,
			Space:             ictx.Space,
		})
	})

	if err == nil {
		ingestMetrics.rowsIngested.WithLabelValues(string(KindCoverage)).Add(float64(res.RowsInserted))
	}
	p.observe(KindCoverage, start, err)
	if err != nil {
		p.logger.Error("ingest.coverage.failed", "execution_id", ictx.ExecutionID, "error", err)
		return nil, err
	}
	p.logger.Info("ingest.coverage.done", "execution_id", ictx.ExecutionID, "files", res.RowsInserted)
	return res, nil
}

// IngestCIRun upserts one remote run and its jobs (spec §4.3, §4.7), and
// for any job whose test outcomes were fetched along with it (LogContent
// or TestResultsJSON) converts them into space=ci ExecutionHistory rows
// keyed by CIExecutionID(run, job), so compareLocalVsCI and the flaky/
// failure-rate rules have real CI rows to read instead of only the ones a
// test hand-inserts (spec §4.8.2). CI ingestion is idempotent end to end:
// re-running against the same remote_run_id converges to the same run/job
// rows, and re-ingesting the same job's log inserts no duplicate history
// rows (spec §3.3 invariant 2).
func (p *Pipeline) IngestCIRun(ctx context.Context, run anvil.CIWorkflowRun, jobs []anvil.CIWorkflowJob) (*Result, error) {
	start := time.Now()
	p.logger.Info("ingest.ci_run.start", "remote_run_id", run.RemoteRunID, "jobs", len(jobs))

	res := &Result{ExecutionID: "ci-" + run.RemoteRunID}
	touched := make(map[string]struct{})

	err := p.store.Atomic(ctx, "ingest_ci_run", func(tx *anvil.Tx) error {
		if err := tx.UpsertCIWorkflowRun(run); err != nil {
			return err
		}
		res.RowsInserted++
		for _, j := range jobs {
			if err := tx.UpsertCIWorkflowJob(j); err != nil {
				return err
			}
			res.RowsInserted++
			res.EntitiesAffected = append(res.EntitiesAffected, j.RemoteJobID)

			n, err := p.ingestCIJobHistory(tx, run.RemoteRunID, j, touched)
			if err != nil {
				return err
			}
			res.RowsInserted += n
		}
		return recomputeEntities(tx, touched)
	})

	if err == nil {
		ingestMetrics.rowsIngested.WithLabelValues(string(KindCIRun)).Add(float64(res.RowsInserted))
	}
	p.observe(KindCIRun, start, err)
	if err != nil {
		p.logger.Error("ingest.ci_run.failed", "remote_run_id", run.RemoteRunID, "error", err)
		return nil, err
	}
	p.logger.Info("ingest.ci_run.done", "remote_run_id", run.RemoteRunID, "rows", res.RowsInserted)
	return res, nil
}

// ingestCIJobHistory converts one CI job's parsed test outcomes into
// space=ci ExecutionHistory rows, inserted within the caller's transaction
// and added to touched for rollup recomputation. A job carrying
// TestResultsJSON (a structured test-runner report, same shape
// IngestTestReport consumes) yields one row per test, pass and fail alike.
// A job carrying only a raw LogContent yields rows for its failed node ids
// only — the one outcome a plain log reliably identifies (spec §4.2.4). A
// job with neither is skipped: not every CI job runs tests.
func (p *Pipeline) ingestCIJobHistory(tx *anvil.Tx, runID string, j anvil.CIWorkflowJob, touched map[string]struct{}) (int, error) {
	executionID := CIExecutionID(runID, j.RemoteJobID)
	timestamp := j.StartedAt
	if j.CompletedAt != nil {
		timestamp = *j.CompletedAt
	}

	var rows []anvil.ExecutionHistory
	switch {
	case j.TestResultsJSON != nil:
		results, err := parsers.ParseTestReport([]byte(*j.TestResultsJSON))
		if err != nil {
			p.logger.Warn("ingest.ci_run.unparseable_test_results", "remote_job_id", j.RemoteJobID, "error", err)
			return 0, nil
		}
		for _, r := range results {
			rows = append(rows, anvil.ExecutionHistory{
				EntityID: r.NodeID, EntityType: anvil.EntityTest, ExecutionID: executionID,
				Timestamp: timestamp, Status: testOutcomeToStatus(r.Outcome),
				DurationSeconds: r.DurationSeconds, Space: anvil.SpaceCI,
			})
		}
	case j.LogContent != nil:
		summary, err := parsers.ParseCILog(*j.LogContent)
		if err != nil {
			p.logger.Warn("ingest.ci_run.unparseable_log", "remote_job_id", j.RemoteJobID, "error", err)
			return 0, nil
		}
		for _, nodeID := range summary.FailedNodeIDs {
			rows = append(rows, anvil.ExecutionHistory{
				EntityID: nodeID, EntityType: anvil.EntityTest, ExecutionID: executionID,
				Timestamp: timestamp, Status: anvil.StatusFailed, Space: anvil.SpaceCI,
			})
		}
	default:
		return 0, nil
	}

	inserted := 0
	for _, h := range rows {
		ok, err := tx.InsertExecutionHistoryIgnoreDup(h)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
			touched[h.EntityID] = struct{}{}
		}
	}
	return inserted, nil
}

func testOutcomeToStatus(o parsers.Outcome) anvil.Status {
	switch o {
	case parsers.OutcomePassed:
		return anvil.StatusPassed
	case parsers.OutcomeFailed:
		return anvil.StatusFailed
	case parsers.OutcomeSkipped:
		return anvil.StatusSkipped
	default:
		return anvil.StatusError
	}
}

func mostCommonCode(counts map[string]int) string {
	var best string
	var bestCount int
	for code, n := range counts {
		if n > bestCount || (n == bestCount && code < best) {
			best, bestCount = code, n
		}
	}
	return best
}
