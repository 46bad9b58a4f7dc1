// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/argos/internal/argoserr"
	"github.com/kraklabs/argos/internal/config"
	"github.com/kraklabs/argos/internal/ui"
	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/ingest"
	"github.com/kraklabs/argos/pkg/parsers"
	"github.com/kraklabs/argos/pkg/rules"
	"github.com/kraklabs/argos/pkg/runner"
)

// runExecute implements `argos execute`: evaluate one rule against
// history, run the selected entities through the configured test runner,
// and ingest the resulting report (spec.md §§4.4–4.6).
func runExecute(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("execute", flag.ExitOnError)
	ruleName := fs.String("rule", "", "execution rule to evaluate (required)")
	changedFiles := fs.StringSlice("changed-files", nil, "changed-file list for changed-files rules")
	marker := fs.String("marker", "", "marker filter forwarded to the runner")
	pattern := fs.String("pattern", "", "pattern filter forwarded to the runner")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: argos execute --rule NAME [options]

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	if *ruleName == "" {
		argoserr.FatalError(argoserr.NewInputError(
			"no rule specified", "--rule is required", "pass --rule NAME, e.g. --rule smoke",
		), globals.JSON)
	}

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	ctx := context.Background()
	rule, err := store.GetExecutionRule(ctx, *ruleName)
	if err != nil {
		argoserr.FatalError(argoserr.NewNotFoundError(
			"execution rule not found", fmt.Sprintf("no rule named %q", *ruleName), "run 'argos rules list' to see available rules",
		), globals.JSON)
	}

	rule.Groups = config.ExpandGroups(rule.Groups, *changedFiles)

	engine := rules.New(store, nil)
	sel, err := engine.Select(ctx, *rule, rules.SelectionContext{
		ChangedFiles: *changedFiles,
		Marker:       *marker,
		Pattern:      *pattern,
	})
	if err != nil {
		argoserr.FatalError(argoserr.NewStoreError("rule selection failed", err.Error(), "", err), globals.JSON)
	}

	if len(sel.EntityIDs) == 0 {
		ui.Info("no entities selected, nothing to run")
		os.Exit(argoserr.ExitSuccess)
	}

	executionID := ingest.LocalExecutionID(time.Now())
	ui.Infof("running %d entities as execution %s", len(sel.EntityIDs), executionID)

	reportPath := filepath.Join(os.TempDir(), "argos-report-"+executionID+".json")
	defer os.Remove(reportPath)

	bar := NewProgressBar(NewProgressConfig(globals), -1, "executing")

	adapter := runner.New(nil)
	command := rule.ExecutorConfig["command"]
	if command == "" {
		command = "pytest"
	}
	reportFlag := rule.ExecutorConfig["report_flag"]
	if reportFlag == "" {
		reportFlag = "--report-path"
	}
	var runArgs []string
	if base := rule.ExecutorConfig["args"]; base != "" {
		runArgs = append(runArgs, strings.Fields(base)...)
	}
	runArgs = append(runArgs, reportFlag, reportPath)
	if sel.RunnerFilters.Marker != "" {
		runArgs = append(runArgs, "-m", sel.RunnerFilters.Marker)
	}
	if sel.RunnerFilters.Pattern != "" {
		runArgs = append(runArgs, "-k", sel.RunnerFilters.Pattern)
	}
	runArgs = append(runArgs, sel.EntityIDs...)

	_, err = adapter.Run(ctx, runner.Options{
		Command: command,
		Args:    runArgs,
		Dir:     rule.ExecutorConfig["dir"],
		Sink:    progressSink{bar},
	})
	finishProgress(bar)
	if err != nil {
		argoserr.FatalError(argoserr.NewInternalError(
			"test runner failed", err.Error(), "check the runner command in the rule's executor config", err,
		), globals.JSON)
	}

	results, err := runner.ReadReport(reportPath)
	if err != nil {
		argoserr.FatalError(argoserr.NewParseError(
			"failed to read test report", err.Error(), "check that the runner produced a well-formed report", err,
		), globals.JSON)
	}

	pipeline := ingest.New(store, nil)
	ictx := ingest.Context{
		ExecutionID: executionID,
		Space:       anvil.SpaceLocal,
		Timestamp:   time.Now().UTC(),
		Metadata:    map[string]string{"rule": rule.Name},
	}
	if _, err := pipeline.IngestTestReport(ctx, ictx, results); err != nil {
		argoserr.FatalError(argoserr.NewStoreError(
			"failed to ingest test report", err.Error(), "", err,
		), globals.JSON)
	}

	failed := 0
	for _, r := range results {
		if r.Outcome == parsers.OutcomeFailed || r.Outcome == parsers.OutcomeError {
			failed++
		}
	}
	if !globals.Quiet {
		ui.Successf("execution %s complete: %d ran, %d failed", executionID, len(results), failed)
	}

	if failed > 0 {
		os.Exit(argoserr.ExitTestFailure)
	}
	os.Exit(argoserr.ExitSuccess)
}
