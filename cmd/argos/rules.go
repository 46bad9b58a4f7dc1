// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/argos/internal/argoserr"
	"github.com/kraklabs/argos/internal/output"
	"github.com/kraklabs/argos/internal/ui"
)

// runRules implements `argos rules {list,sync,enable,disable,delete}`.
func runRules(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: argos rules <list|sync|enable|disable|delete> [options]")
		os.Exit(argoserr.ExitOperational)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		runRulesList(rest, globals)
	case "sync":
		runRulesSync(rest, globals)
	case "enable":
		runRulesSetEnabled(rest, globals, true)
	case "disable":
		runRulesSetEnabled(rest, globals, false)
	case "delete":
		runRulesDelete(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "argos rules: unknown subcommand %q\n", sub)
		os.Exit(argoserr.ExitOperational)
	}
}

func runRulesList(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("rules list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	ruleList, err := store.ListExecutionRules(context.Background())
	if err != nil {
		argoserr.FatalError(argoserr.NewStoreError("failed to list rules", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(ruleList)
		return
	}
	ui.Header("Execution Rules")
	for _, r := range ruleList {
		status := ui.Green.Sprint("enabled")
		if !r.Enabled {
			status = ui.Dim.Sprint("disabled")
		}
		fmt.Printf("%s  %s  criteria=%s window=%d\n", ui.Label(r.Name), status, r.Criteria, r.Window)
	}
}

// runRulesSync upserts every rule defined in the project config into the
// store, the way `argos execute` expects to find them.
func runRulesSync(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("rules sync", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	ctx := context.Background()
	n := 0
	for _, r := range project.ExecutionRules() {
		if err := store.UpsertExecutionRule(ctx, r); err != nil {
			argoserr.FatalError(argoserr.NewStoreError(
				"failed to sync rule "+r.Name, err.Error(), "", err,
			), globals.JSON)
		}
		n++
	}
	ui.Successf("synced %d rule(s) from %s", n, globals.Config)
}

func runRulesSetEnabled(args []string, globals GlobalFlags, enabled bool) {
	fs := flag.NewFlagSet("rules enable/disable", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}
	if fs.NArg() != 1 {
		argoserr.FatalError(argoserr.NewInputError(
			"rule name required", "no positional argument given", "argos rules enable RULE_NAME",
		), globals.JSON)
	}
	name := fs.Arg(0)

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	ctx := context.Background()
	rule, err := store.GetExecutionRule(ctx, name)
	if err != nil {
		argoserr.FatalError(argoserr.NewNotFoundError("rule not found", name, "run 'argos rules list'"), globals.JSON)
	}
	rule.Enabled = enabled
	if err := store.UpsertExecutionRule(ctx, *rule); err != nil {
		argoserr.FatalError(argoserr.NewStoreError("failed to update rule", err.Error(), "", err), globals.JSON)
	}
	ui.Successf("rule %s %s", name, map[bool]string{true: "enabled", false: "disabled"}[enabled])
}

func runRulesDelete(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("rules delete", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}
	if fs.NArg() != 1 {
		argoserr.FatalError(argoserr.NewInputError(
			"rule name required", "no positional argument given", "argos rules delete RULE_NAME",
		), globals.JSON)
	}
	name := fs.Arg(0)

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	if err := store.DeleteExecutionRule(context.Background(), name); err != nil {
		argoserr.FatalError(argoserr.NewStoreError("failed to delete rule", err.Error(), "", err), globals.JSON)
	}
	ui.Successf("rule %s deleted", name)
}
