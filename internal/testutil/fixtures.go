// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"time"

	"github.com/kraklabs/argos/pkg/anvil"
)

// ExecutionHistory builds a passing ExecutionHistory row for entityID from
// executionID, timestamped now, in the local space. Override fields on the
// returned value for other statuses/spaces/durations.
func ExecutionHistory(executionID, entityID string) anvil.ExecutionHistory {
	return anvil.ExecutionHistory{
		EntityID:        entityID,
		EntityType:      anvil.EntityTest,
		ExecutionID:     executionID,
		Timestamp:       time.Now().UTC(),
		Status:          anvil.StatusPassed,
		DurationSeconds: 0.1,
		Space:           anvil.SpaceLocal,
	}
}

// LintViolation builds a single flake8-style error violation for filePath.
func LintViolation(executionID, filePath string) anvil.LintViolation {
	return anvil.LintViolation{
		ExecutionID: executionID,
		FilePath:    filePath,
		Line:        1,
		Severity:    anvil.SeverityError,
		Code:        "E501",
		Message:     "line too long",
		Validator:   "flake8",
		Timestamp:   time.Now().UTC(),
		Space:       anvil.SpaceLocal,
	}
}

// CoverageHistory builds a single-file coverage row: total statements,
// covered, and the derived percentage.
func CoverageHistory(executionID, filePath string, total, covered int) anvil.CoverageHistory {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(covered) / float64(total)
	}
	return anvil.CoverageHistory{
		ExecutionID:        executionID,
		FilePath:           filePath,
		Timestamp:          time.Now().UTC(),
		TotalStatements:    total,
		CoveredStatements:  covered,
		CoveragePercentage: pct,
		Space:              anvil.SpaceLocal,
	}
}

// ExecutionRule builds a minimal enabled "all" rule named name.
func ExecutionRule(name string) anvil.ExecutionRule {
	return anvil.ExecutionRule{
		Name:       name,
		Enabled:    true,
		Criteria:   anvil.CriteriaAll,
		Window:     20,
		EntityType: anvil.EntityTest,
	}
}
