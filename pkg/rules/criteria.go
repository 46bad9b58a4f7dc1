// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"context"
	"sort"
	"strings"

	"github.com/kraklabs/argos/pkg/anvil"
)

// entityFile derives the file path an entity is associated with, for
// criteria that filter by file glob (spec §4.4's group/changed-files
// criteria; Open Question 1). The entity_id's path-prefix-before-"::"
// convention (spec §3.1: "path/to/file::Class::case") gives the file for
// test entities; lint-file and coverage-file entities have no "::" and
// their entity_id already IS the file path, unless the rule overrides it
// via ExecutorConfig["file_glob"].
func entityFile(entityID string, rule anvil.ExecutionRule) string {
	if idx := strings.Index(entityID, "::"); idx >= 0 {
		return entityID[:idx]
	}
	if glob := rule.ExecutorConfig["file_glob"]; glob != "" {
		return glob
	}
	return entityID
}

func matchesAnyGroup(candidate string, groups []string) bool {
	if len(groups) == 0 {
		return true
	}
	for _, g := range groups {
		if MatchGlob(candidate, g) {
			return true
		}
	}
	return false
}

// selectAll implements the `all` criterion: every known entity of the
// rule's configured entity_type, optionally restricted to entities whose
// entity_id or file matches one of rule.Groups.
func selectAll(ctx context.Context, store *anvil.Store, rule anvil.ExecutionRule) ([]string, error) {
	all, err := store.ListEntityStatistics(ctx, rule.EntityType)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range all {
		if matchesAnyGroup(st.EntityID, rule.Groups) || matchesAnyGroup(entityFile(st.EntityID, rule), rule.Groups) {
			out = append(out, st.EntityID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// selectGroup implements the `group` criterion: entities whose entity_id
// or derived file matches at least one glob in rule.Groups.
func selectGroup(ctx context.Context, store *anvil.Store, rule anvil.ExecutionRule) ([]string, error) {
	all, err := store.ListEntityStatistics(ctx, rule.EntityType)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range all {
		if matchesAnyGroup(st.EntityID, rule.Groups) || matchesAnyGroup(entityFile(st.EntityID, rule), rule.Groups) {
			out = append(out, st.EntityID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// selectFailedInLast implements `failed-in-last`: entities whose most
// recent rule.Window ExecutionHistory rows contain at least one FAILED or
// ERROR outcome. Fewer than Window rows available means "treat all
// available" (spec §4.4).
func selectFailedInLast(ctx context.Context, store *anvil.Store, rule anvil.ExecutionRule) ([]string, error) {
	all, err := store.ListEntityStatistics(ctx, rule.EntityType)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range all {
		if !matchesAnyGroup(st.EntityID, rule.Groups) && !matchesAnyGroup(entityFile(st.EntityID, rule), rule.Groups) {
			continue
		}
		history, err := store.GetExecutionHistory(ctx, anvil.HistoryFilter{
			EntityID: st.EntityID, Space: anvil.SpaceAll, Limit: rule.Window,
		})
		if err != nil {
			return nil, err
		}
		for _, h := range history {
			if h.Status == anvil.StatusFailed || h.Status == anvil.StatusError {
				out = append(out, st.EntityID)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// selectFailureRate implements `failure-rate`: entities whose failed/
// total_runs over the most recent rule.Window rows is >= rule.Threshold,
// ordered by descending failure_rate, ties broken by higher total_runs
// then alphabetically (spec §4.4).
func selectFailureRate(ctx context.Context, store *anvil.Store, rule anvil.ExecutionRule) ([]string, error) {
	all, err := store.ListEntityStatistics(ctx, rule.EntityType)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		entityID  string
		totalRuns int
		rate      float64
	}
	var candidates []candidate

	for _, st := range all {
		if !matchesAnyGroup(st.EntityID, rule.Groups) && !matchesAnyGroup(entityFile(st.EntityID, rule), rule.Groups) {
			continue
		}
		history, err := store.GetExecutionHistory(ctx, anvil.HistoryFilter{
			EntityID: st.EntityID, Space: anvil.SpaceAll, Limit: rule.Window,
		})
		if err != nil {
			return nil, err
		}
		if len(history) == 0 {
			continue
		}
		var failed int
		for _, h := range history {
			if h.Status == anvil.StatusFailed || h.Status == anvil.StatusError {
				failed++
			}
		}
		rate := float64(failed) / float64(len(history))
		if rate >= rule.Threshold {
			candidates = append(candidates, candidate{entityID: st.EntityID, totalRuns: len(history), rate: rate})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].rate != candidates[j].rate {
			return candidates[i].rate > candidates[j].rate
		}
		if candidates[i].totalRuns != candidates[j].totalRuns {
			return candidates[i].totalRuns > candidates[j].totalRuns
		}
		return candidates[i].entityID < candidates[j].entityID
	})

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.entityID
	}
	return out, nil
}

// selectChangedFiles implements `changed-files`: entities whose derived
// file is in changedFiles (the caller-supplied `${CHANGED_FILES}`
// expansion, spec §4.4), further narrowed by rule.Groups when non-empty.
func selectChangedFiles(ctx context.Context, store *anvil.Store, rule anvil.ExecutionRule, changedFiles []string) ([]string, error) {
	changed := make(map[string]struct{}, len(changedFiles))
	for _, f := range changedFiles {
		changed[f] = struct{}{}
	}

	all, err := store.ListEntityStatistics(ctx, rule.EntityType)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range all {
		file := entityFile(st.EntityID, rule)
		if _, ok := changed[file]; !ok {
			continue
		}
		if len(rule.Groups) > 0 && !matchesAnyGroup(st.EntityID, rule.Groups) && !matchesAnyGroup(file, rule.Groups) {
			continue
		}
		out = append(out, st.EntityID)
	}
	sort.Strings(out)
	return out, nil
}

// RunnerFilters is the extra filter set `marker` and `pattern` criteria
// forward to the test-runner adapter (spec §4.4: "forwarded as additional
// filters to the test-runner adapter; the engine narrows by groups and
// returns the union").
type RunnerFilters struct {
	Marker  string
	Pattern string
}

// selectMarkerOrPattern narrows the known entities of the rule's
// entity_type by rule.Groups and returns them alongside the raw filter the
// caller must still pass to pkg/runner — the engine itself cannot
// evaluate pytest-style markers or patterns against stored entities.
func selectMarkerOrPattern(ctx context.Context, store *anvil.Store, rule anvil.ExecutionRule) ([]string, error) {
	all, err := store.ListEntityStatistics(ctx, rule.EntityType)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range all {
		if matchesAnyGroup(st.EntityID, rule.Groups) || matchesAnyGroup(entityFile(st.EntityID, rule), rule.Groups) {
			out = append(out, st.EntityID)
		}
	}
	sort.Strings(out)
	return out, nil
}
