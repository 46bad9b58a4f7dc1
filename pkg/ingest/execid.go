// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"fmt"
	"time"
)

// LocalExecutionID returns the canonical execution_id for a local run
// starting at t (spec §4.3): local-YYYYMMDD-HHMMSS.
func LocalExecutionID(t time.Time) string {
	return "local-" + t.UTC().Format("20060102-150405")
}

// CIExecutionID returns the canonical execution_id for a CI ingest
// (spec §4.3). subdivision is either a project name or a job id and may be
// empty for a run-level ingest; when non-empty it is appended as a third
// hyphen-separated segment.
func CIExecutionID(remoteRunID, subdivision string) string {
	if subdivision == "" {
		return fmt.Sprintf("ci-%s", remoteRunID)
	}
	return fmt.Sprintf("ci-%s-%s", remoteRunID, subdivision)
}
