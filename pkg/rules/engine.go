// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/argos/pkg/anvil"
)

// SelectionContext carries the inputs the engine cannot derive from the
// store alone: the changed-files set for `changed-files` rules, and the
// marker/pattern strings the caller wants forwarded to the runner for
// `marker`/`pattern` rules.
type SelectionContext struct {
	ChangedFiles []string
	Marker       string
	Pattern      string
}

// Selection is the result of evaluating one rule: the ordered entity ids
// to run, plus any extra filter the test-runner adapter (C6) must apply
// on top (spec §4.4: marker/pattern criteria narrow by group here and
// forward the rest).
type Selection struct {
	EntityIDs     []string
	RunnerFilters RunnerFilters
}

// Engine evaluates ExecutionRules against a Store. Evaluation is strictly
// read-only (spec §4.4: "the engine MUST NOT mutate anything").
type Engine struct {
	store  *anvil.Store
	logger *slog.Logger
}

// New constructs an Engine. A nil logger falls back to slog.Default().
func New(store *anvil.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Select evaluates rule against the store and returns the entities it
// picks out, per the criterion handler for rule.Criteria.
func (e *Engine) Select(ctx context.Context, rule anvil.ExecutionRule, sel SelectionContext) (*Selection, error) {
	e.logger.Info("rules.select.start", "rule", rule.Name, "criteria", rule.Criteria)

	var ids []string
	var err error
	result := &Selection{}

	switch rule.Criteria {
	case anvil.CriteriaAll:
		ids, err = selectAll(ctx, e.store, rule)
	case anvil.CriteriaGroup:
		ids, err = selectGroup(ctx, e.store, rule)
	case anvil.CriteriaFailedInLast:
		ids, err = selectFailedInLast(ctx, e.store, rule)
	case anvil.CriteriaFailureRate:
		ids, err = selectFailureRate(ctx, e.store, rule)
	case anvil.CriteriaChangedFiles:
		ids, err = selectChangedFiles(ctx, e.store, rule, sel.ChangedFiles)
	case anvil.CriteriaMarker:
		ids, err = selectMarkerOrPattern(ctx, e.store, rule)
		result.RunnerFilters.Marker = sel.Marker
	case anvil.CriteriaPattern:
		ids, err = selectMarkerOrPattern(ctx, e.store, rule)
		result.RunnerFilters.Pattern = sel.Pattern
	default:
		err = fmt.Errorf("rules: unknown criteria %q", rule.Criteria)
	}
	if err != nil {
		e.logger.Error("rules.select.failed", "rule", rule.Name, "error", err)
		return nil, err
	}

	result.EntityIDs = ids
	e.logger.Info("rules.select.done", "rule", rule.Name, "selected", len(ids))
	return result, nil
}
