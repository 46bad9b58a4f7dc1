// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// UpsertExecutionRule creates or replaces the named rule (spec §4.4).
func (s *Store) UpsertExecutionRule(ctx context.Context, r ExecutionRule) error {
	groups, err := json.Marshal(r.Groups)
	if err != nil {
		return newError(KindConstraint, "upsert_execution_rule", err)
	}
	cfg, err := json.Marshal(r.ExecutorConfig)
	if err != nil {
		return newError(KindConstraint, "upsert_execution_rule", err)
	}

	return s.withWrite(ctx, "upsert_execution_rule", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO execution_rules
				(name, enabled, criteria, window, threshold, groups, entity_type, executor_config)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				enabled = excluded.enabled,
				criteria = excluded.criteria,
				window = excluded.window,
				threshold = excluded.threshold,
				groups = excluded.groups,
				entity_type = excluded.entity_type,
				executor_config = excluded.executor_config`,
			r.Name, r.Enabled, string(r.Criteria), r.Window, r.Threshold, string(groups), string(r.EntityType), string(cfg),
		)
		return err
	})
}

// GetExecutionRule looks up a rule by name. It returns a KindNotFound
// *Error if no such rule exists.
func (s *Store) GetExecutionRule(ctx context.Context, name string) (*ExecutionRule, error) {
	var r ExecutionRule
	err := s.withRead(ctx, "get_execution_rule", func(db *sql.DB) error {
		var groups, cfg, criteria, entityType string
		err := db.QueryRowContext(ctx, `
			SELECT name, enabled, criteria, window, threshold, groups, entity_type, executor_config
			FROM execution_rules WHERE name = ?`, name,
		).Scan(&r.Name, &r.Enabled, &criteria, &r.Window, &r.Threshold, &groups, &entityType, &cfg)
		if errors.Is(err, sql.ErrNoRows) {
			return newError(KindNotFound, "get_execution_rule", err)
		}
		if err != nil {
			return err
		}
		r.Criteria = ExecutionRuleCriteria(criteria)
		r.EntityType = EntityType(entityType)
		if err := json.Unmarshal([]byte(groups), &r.Groups); err != nil {
			return err
		}
		return json.Unmarshal([]byte(cfg), &r.ExecutorConfig)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListExecutionRules returns every rule, ordered by name.
func (s *Store) ListExecutionRules(ctx context.Context) ([]ExecutionRule, error) {
	var out []ExecutionRule
	err := s.withRead(ctx, "list_execution_rules", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT name, enabled, criteria, window, threshold, groups, entity_type, executor_config
			FROM execution_rules ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r ExecutionRule
			var groups, cfg, criteria, entityType string
			if err := rows.Scan(&r.Name, &r.Enabled, &criteria, &r.Window, &r.Threshold, &groups, &entityType, &cfg); err != nil {
				return err
			}
			r.Criteria = ExecutionRuleCriteria(criteria)
			r.EntityType = EntityType(entityType)
			if err := json.Unmarshal([]byte(groups), &r.Groups); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(cfg), &r.ExecutorConfig); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// DeleteExecutionRule removes a rule by name. Deleting an unknown rule is
// not an error.
func (s *Store) DeleteExecutionRule(ctx context.Context, name string) error {
	return s.withWrite(ctx, "delete_execution_rule", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM execution_rules WHERE name = ?`, name)
		return err
	})
}
