// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"strings"

	"github.com/kraklabs/argos/pkg/anvil"
)

// comparisonResult is the local-vs-CI comparison struct of spec §4.8.2.
type comparisonResult struct {
	EntityID     string            `json:"entity_id"`
	Local        *anvil.Status     `json:"local"`
	CIByPlatform map[string]string `json:"ci_by_platform"`
	Disagreement bool              `json:"disagreement"`
}

// compareLocalVsCI joins one entity's most recent local outcome against
// its most recent per-platform CI outcome (spec §4.8.2). The platform for
// a CI ExecutionHistory row is recovered from the job id encoded in its
// execution_id (ingest.CIExecutionID's "ci-<run_id>-<job_id>" form),
// looked up against that run's CIWorkflowJob rows.
func compareLocalVsCI(ctx context.Context, store *anvil.Store, entityID string) (*comparisonResult, error) {
	localRows, err := store.GetExecutionHistory(ctx, anvil.HistoryFilter{EntityID: entityID, Space: anvil.SpaceLocal, Limit: 1})
	if err != nil {
		return nil, err
	}
	var local *anvil.Status
	if len(localRows) > 0 {
		s := localRows[0].Status
		local = &s
	}

	ciRows, err := store.GetExecutionHistory(ctx, anvil.HistoryFilter{EntityID: entityID, Space: anvil.SpaceCI})
	if err != nil {
		return nil, err
	}

	jobsByRun := map[string][]anvil.CIWorkflowJob{}
	byPlatform := map[string]string{}
	seen := map[string]bool{}

	for _, row := range ciRows {
		runID, jobID, ok := splitCIExecutionID(row.ExecutionID)
		if !ok {
			continue
		}
		jobs, cached := jobsByRun[runID]
		if !cached {
			jobs, err = store.GetCIWorkflowJobs(ctx, runID)
			if err != nil {
				return nil, err
			}
			jobsByRun[runID] = jobs
		}
		platform := ""
		for _, j := range jobs {
			if j.RemoteJobID == jobID {
				platform = j.RunnerOS
				break
			}
		}
		if platform == "" || seen[platform] {
			continue
		}
		seen[platform] = true
		byPlatform[platform] = string(row.Status)
	}

	disagreement := false
	if local != nil {
		for _, status := range byPlatform {
			if status != string(*local) {
				disagreement = true
				break
			}
		}
	}

	return &comparisonResult{
		EntityID:     entityID,
		Local:        local,
		CIByPlatform: byPlatform,
		Disagreement: disagreement,
	}, nil
}

// splitCIExecutionID recovers (run_id, job_id) from an execution_id of the
// form "ci-<run_id>-<job_id>" produced by ingest.CIExecutionID. Run-level
// ids ("ci-<run_id>", no job subdivision) return ok=false — they carry no
// per-platform signal.
func splitCIExecutionID(executionID string) (runID, jobID string, ok bool) {
	const prefix = "ci-"
	if !strings.HasPrefix(executionID, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(executionID, prefix)
	idx := strings.LastIndex(rest, "-")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// platformSpecificFailure reports an entity whose most recent CI outcome
// on some platform is FAILED while its most recent local outcome is
// PASSED (spec §4.8.2 "platform-specific failures").
type platformSpecificFailure struct {
	EntityID string `json:"entity_id"`
	Platform string `json:"platform"`
}

// platformSpecificFailures scans entityIDs and returns every
// (entity, platform) pair exhibiting a CI-only failure, in entityIDs
// order; the order of platforms within one entity is not defined. Callers supply the candidate entity set (e.g. every entity with
// CI history) since anvil has no single "all test entities" index.
func platformSpecificFailures(ctx context.Context, store *anvil.Store, entityIDs []string) ([]platformSpecificFailure, error) {
	var out []platformSpecificFailure
	for _, id := range entityIDs {
		cmp, err := compareLocalVsCI(ctx, store, id)
		if err != nil {
			return nil, err
		}
		if cmp.Local == nil || *cmp.Local != anvil.StatusPassed {
			continue
		}
		for platform, status := range cmp.CIByPlatform {
			if status == string(anvil.StatusFailed) {
				out = append(out, platformSpecificFailure{EntityID: id, Platform: platform})
			}
		}
	}
	return out, nil
}
