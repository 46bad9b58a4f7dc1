// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads Argos's YAML project config (spec.md §6.4):
// project metadata, enabled validators, test-discovery patterns, history
// store settings, execution rules, and CI provider settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/argos/pkg/anvil"
)

// Project is the root of a parsed `.argos.yaml`.
type Project struct {
	Project    ProjectSection    `yaml:"project"`
	Validators ValidatorsSection `yaml:"validators"`
	Test       TestSection       `yaml:"test"`
	History    HistorySection    `yaml:"history"`
	Rules      []Rule            `yaml:"rules"`
	CI         CISection         `yaml:"ci"`
}

type ProjectSection struct {
	Name string `yaml:"name"`
}

type ValidatorsSection struct {
	Enabled []string `yaml:"enabled"`
}

type TestSection struct {
	Patterns []string `yaml:"patterns"`
}

type HistorySection struct {
	Enabled       bool   `yaml:"enabled"`
	Database      string `yaml:"database"`
	RetentionDays int    `yaml:"retention_days"`
}

type CISection struct {
	Provider string `yaml:"provider"`
	TokenEnv string `yaml:"token_env"`
}

// Rule is one rule-file entry (spec.md §6.4). Groups may contain the
// literal token `${CHANGED_FILES}`, expanded by ExpandGroups at selection
// time to the caller-supplied changed-file list.
type Rule struct {
	Name      string   `yaml:"name"`
	Enabled   *bool    `yaml:"enabled"`
	Criteria  string   `yaml:"criteria"`
	Threshold float64  `yaml:"threshold"`
	Window    int      `yaml:"window"`
	Groups    []string `yaml:"groups"`
}

// defaults applied after YAML decode, before the caller consumes the
// config.
const (
	defaultHistoryDatabase      = ".anvil/history.db"
	defaultHistoryRetentionDays = 90
	defaultRuleWindow           = 20
)

// Load reads and parses path, applying defaults for every field the file
// omits. A missing or unreadable file is returned as a plain error wrapping
// the os error (so errors.Is(err, fs.ErrNotExist) holds for a missing file);
// callers at the CLI boundary translate it into an internal/argoserr.UserError.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&p)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func applyDefaults(p *Project) {
	if p.History.Database == "" {
		p.History.Database = defaultHistoryDatabase
	}
	if p.History.RetentionDays == 0 {
		p.History.RetentionDays = defaultHistoryRetentionDays
	}
	for i := range p.Rules {
		if p.Rules[i].Enabled == nil {
			enabled := true
			p.Rules[i].Enabled = &enabled
		}
		if p.Rules[i].Window == 0 {
			p.Rules[i].Window = defaultRuleWindow
		}
	}
}

// Validate checks that every rule's criteria is one of the closed set spec.md
// §4.4 allows, and that rule names are unique and non-empty.
func (p *Project) Validate() error {
	seen := map[string]bool{}
	for _, r := range p.Rules {
		if r.Name == "" {
			return fmt.Errorf("config: rule with empty name")
		}
		if seen[r.Name] {
			return fmt.Errorf("config: duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true

		switch anvil.ExecutionRuleCriteria(r.Criteria) {
		case anvil.CriteriaAll, anvil.CriteriaGroup, anvil.CriteriaFailedInLast,
			anvil.CriteriaFailureRate, anvil.CriteriaChangedFiles, anvil.CriteriaMarker, anvil.CriteriaPattern:
		default:
			return fmt.Errorf("config: rule %q has unknown criteria %q", r.Name, r.Criteria)
		}
	}
	return nil
}

// ExecutionRules converts the parsed rule entries into anvil.ExecutionRule
// values ready for anvil.Store.UpsertExecutionRule, defaulting EntityType to
// anvil.EntityTest (the only entity type spec.md's rule engine selects over).
// Groups are copied verbatim, including any literal ${CHANGED_FILES} token —
// ExpandGroups resolves it at selection time, once the caller's changed-file
// list is known.
func (p *Project) ExecutionRules() []anvil.ExecutionRule {
	out := make([]anvil.ExecutionRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		enabled := true
		if r.Enabled != nil {
			enabled = *r.Enabled
		}
		out = append(out, anvil.ExecutionRule{
			Name:       r.Name,
			Enabled:    enabled,
			Criteria:   anvil.ExecutionRuleCriteria(r.Criteria),
			Window:     r.Window,
			Threshold:  r.Threshold,
			Groups:     append([]string(nil), r.Groups...),
			EntityType: anvil.EntityTest,
		})
	}
	return out
}

// changedFilesToken is the placeholder spec.md §6.4 says is expanded to the
// caller-supplied changed-file list at rule-evaluation time.
const changedFilesToken = "${CHANGED_FILES}"

// ExpandGroups replaces any literal changedFilesToken entry in groups with
// the elements of changedFiles, preserving the position and order of the
// surrounding glob patterns.
func ExpandGroups(groups []string, changedFiles []string) []string {
	var out []string
	for _, g := range groups {
		if g == changedFilesToken {
			out = append(out, changedFiles...)
			continue
		}
		out = append(out, g)
	}
	return out
}
