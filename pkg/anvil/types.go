// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import "time"

// EntityType is the kind of the atomic unit under observation (spec §3.1).
type EntityType string

const (
	EntityTest         EntityType = "test"
	EntityLintFile     EntityType = "lint-file"
	EntityCoverageFile EntityType = "coverage-file"
	EntityCIJob        EntityType = "ci-job"
)

// Space is the provenance tag of a record.
type Space string

const (
	SpaceLocal Space = "local"
	SpaceCI    Space = "ci"
	// SpaceAll is never stored; it is used only as a filter value meaning
	// "do not restrict by space".
	SpaceAll Space = "all"
)

// Status is the outcome of one entity's execution.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
	StatusError   Status = "ERROR"
)

// Severity is a lint violation's severity.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// ExecutionHistory is one entity outcome from one execution (spec §3.2).
type ExecutionHistory struct {
	ID              int64
	EntityID        string
	EntityType      EntityType
	ExecutionID     string
	Timestamp       time.Time
	Status          Status
	DurationSeconds float64
	Space           Space
	Metadata        map[string]string
}

// ExecutionRuleCriteria is the closed set of rule criteria (spec §4.4).
type ExecutionRuleCriteria string

const (
	CriteriaAll          ExecutionRuleCriteria = "all"
	CriteriaGroup        ExecutionRuleCriteria = "group"
	CriteriaFailedInLast ExecutionRuleCriteria = "failed-in-last"
	CriteriaFailureRate  ExecutionRuleCriteria = "failure-rate"
	CriteriaChangedFiles ExecutionRuleCriteria = "changed-files"
	CriteriaMarker       ExecutionRuleCriteria = "marker"
	CriteriaPattern      ExecutionRuleCriteria = "pattern"
)

// ExecutionRule is a named, enabled predicate over history (spec §3.2).
type ExecutionRule struct {
	Name           string
	Enabled        bool
	Criteria       ExecutionRuleCriteria
	Window         int
	Threshold      float64
	Groups         []string
	EntityType     EntityType
	ExecutorConfig map[string]string
}

// EntityStatistics is the per-entity rollup of ExecutionHistory (spec §3.2).
type EntityStatistics struct {
	EntityID    string
	EntityType  EntityType
	TotalRuns   int
	Passed      int
	Failed      int
	Skipped     int
	FailureRate float64
	AvgDuration float64
	LastRun     time.Time
	LastFailure *time.Time
}

// LintViolation is a single lint finding (spec §3.2).
type LintViolation struct {
	ID          int64
	ExecutionID string
	FilePath    string
	Line        int
	Column      int
	Severity    Severity
	Code        string
	Message     string
	Validator   string
	Timestamp   time.Time
	Space       Space
}

// LintSummary rolls up the violations of one (execution_id, validator)
// (spec §3.2).
type LintSummary struct {
	ExecutionID     string
	Timestamp       time.Time
	Validator       string
	FilesScanned    int
	TotalViolations int
	Errors          int
	Warnings        int
	Info            int
	ByCode          map[string]int
	Space           Space
}

// CodeQualityMetrics is the running per-(file,validator) quality rollup
// (spec §3.2).
type CodeQualityMetrics struct {
	FilePath             string
	Validator            string
	TotalScans           int
	TotalViolations      int
	AvgViolationsPerScan float64
	MostCommonCode       string
	LastScan             time.Time
	LastViolation        *time.Time
}

// CoverageHistory is one file's coverage row from one execution (spec §3.2).
type CoverageHistory struct {
	ID                 int64
	ExecutionID        string
	FilePath           string
	Timestamp          time.Time
	TotalStatements    int
	CoveredStatements  int
	CoveragePercentage float64
	MissingLines       []int
	Space              Space
}

// CoverageSummary is the overall coverage rollup of one execution (spec §3.2).
type CoverageSummary struct {
	ExecutionID       string
	Timestamp         time.Time
	TotalCoverage     float64
	FilesAnalyzed     int
	TotalStatements   int
	CoveredStatements int
	Space             Space
}

// CIWorkflowRun mirrors one remote CI workflow run (spec §3.2).
type CIWorkflowRun struct {
	RemoteRunID     string
	WorkflowName    string
	Branch          string
	CommitSHA       string
	Status          string
	Conclusion      string
	StartedAt       time.Time
	DurationSeconds float64
	RunNumber       int
}

// CIWorkflowJob mirrors one remote CI job within a run (spec §3.2).
type CIWorkflowJob struct {
	RemoteJobID     string
	RemoteRunID     string
	JobName         string
	Status          string
	Conclusion      string
	StartedAt       time.Time
	CompletedAt     *time.Time
	RunnerOS        string
	LogContent      *string
	TestResultsJSON *string
}

// HistoryFilter narrows GetExecutionHistory (spec §4.1).
type HistoryFilter struct {
	EntityID    string
	EntityType  EntityType
	ExecutionID string
	Space       Space
	Since       *time.Time
	Until       *time.Time
	Limit       int
}

// LintFilter narrows GetLintViolations and GetLintSummaries.
type LintFilter struct {
	ExecutionID string
	FilePath    string
	Validator   string
	Severity    Severity
	Space       Space
	Since       *time.Time
	Limit       int
}

// CoverageFilter narrows GetCoverageHistory and GetCoverageSummaries.
type CoverageFilter struct {
	ExecutionID string
	FilePath    string
	Space       Space
	Since       *time.Time
	Limit       int
}

// CIFilter narrows GetCIWorkflowRuns.
type CIFilter struct {
	WorkflowName string
	Branch       string
	Conclusion   string
	Since        *time.Time
	Limit        int
}
