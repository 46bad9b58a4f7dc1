// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/argos/pkg/anvil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".argos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
project:
  name: demo
rules:
  - name: smoke
    criteria: all
`)
	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "demo", p.Project.Name)
	require.Equal(t, defaultHistoryDatabase, p.History.Database)
	require.Equal(t, defaultHistoryRetentionDays, p.History.RetentionDays)
	require.Len(t, p.Rules, 1)
	require.True(t, *p.Rules[0].Enabled)
	require.Equal(t, defaultRuleWindow, p.Rules[0].Window)
}

func TestLoadRespectsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
history:
  database: /tmp/custom.db
  retention_days: 30
rules:
  - name: nightly
    criteria: failure-rate
    threshold: 0.1
    window: 50
    enabled: false
`)
	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.db", p.History.Database)
	require.Equal(t, 30, p.History.RetentionDays)
	require.False(t, *p.Rules[0].Enabled)
	require.Equal(t, 50, p.Rules[0].Window)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownCriteria(t *testing.T) {
	path := writeConfig(t, `
rules:
  - name: bogus
    criteria: not-a-real-criteria
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsDuplicateRuleNames(t *testing.T) {
	path := writeConfig(t, `
rules:
  - name: dup
    criteria: all
  - name: dup
    criteria: all
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestExecutionRulesConvertsToAnvilType(t *testing.T) {
	path := writeConfig(t, `
rules:
  - name: smoke
    criteria: marker
    groups: ["${CHANGED_FILES}", "tests/**"]
`)
	p, err := Load(path)
	require.NoError(t, err)

	rules := p.ExecutionRules()
	require.Len(t, rules, 1)
	require.Equal(t, "smoke", rules[0].Name)
	require.Equal(t, anvil.CriteriaMarker, rules[0].Criteria)
	require.Equal(t, anvil.EntityTest, rules[0].EntityType)
	require.Equal(t, []string{changedFilesToken, "tests/**"}, rules[0].Groups)
}

func TestExpandGroups(t *testing.T) {
	got := ExpandGroups([]string{"a/**", changedFilesToken, "b/**"}, []string{"x.py", "y.py"})
	require.Equal(t, []string{"a/**", "x.py", "y.py", "b/**"}, got)
}

func TestExpandGroupsNoToken(t *testing.T) {
	got := ExpandGroups([]string{"a/**"}, []string{"x.py"})
	require.Equal(t, []string{"a/**"}, got)
}
