// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"os"

	"github.com/kraklabs/argos/internal/contract"
	"github.com/kraklabs/argos/pkg/parsers"
)

// ReadReport loads the runner's structured JSON report from reportPath and
// hands it to pkg/parsers (spec §4.6: "the runner writes a structured
// JSON report to report_path"). The file is read in full and then checked
// against internal/contract's soft size limit, so an oversized report is
// rejected before it is parsed.
func ReadReport(reportPath string) ([]parsers.TestResult, error) {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("runner: reading report %s: %w", reportPath, err)
	}
	if res := contract.ValidatePayload(data); !res.OK {
		return nil, fmt.Errorf("runner: report %s: %s", reportPath, res.Message)
	}
	results, err := parsers.ParseTestReport(data)
	if err != nil {
		return nil, fmt.Errorf("runner: parsing report %s: %w", reportPath, err)
	}
	return results, nil
}

// ReadCoverage loads a Cobertura-like coverage XML report written
// alongside the test report when coverage was requested (spec §4.6).
func ReadCoverage(coveragePath string) (*parsers.CoverageData, error) {
	data, err := os.ReadFile(coveragePath)
	if err != nil {
		return nil, fmt.Errorf("runner: reading coverage %s: %w", coveragePath, err)
	}
	if res := contract.ValidatePayload(data); !res.OK {
		return nil, fmt.Errorf("runner: coverage %s: %s", coveragePath, res.Message)
	}
	cov, err := parsers.ParseCobertura(data)
	if err != nil {
		return nil, fmt.Errorf("runner: parsing coverage %s: %w", coveragePath, err)
	}
	return cov, nil
}
