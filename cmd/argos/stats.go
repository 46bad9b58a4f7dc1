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
	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/stats"
)

// runStats implements `argos stats {flaky,entity}` (spec.md §4.3, §4.8.3).
func runStats(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: argos stats <flaky|entity> [options]")
		os.Exit(argoserr.ExitOperational)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "flaky":
		runStatsFlaky(rest, globals)
	case "entity":
		runStatsEntity(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "argos stats: unknown subcommand %q\n", sub)
		os.Exit(argoserr.ExitOperational)
	}
}

func runStatsFlaky(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("stats flaky", flag.ExitOnError)
	entityType := fs.String("entity-type", string(anvil.EntityTest), "entity type to rank")
	threshold := fs.Float64("threshold", 0.05, "minimum failure rate to count as flaky")
	window := fs.Int("window", 50, "most recent N runs per entity to consider")
	limit := fs.Int("limit", 20, "maximum number of entities to return")
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	flaky, err := stats.Flaky(context.Background(), store, anvil.EntityType(*entityType), *threshold, *window, *limit)
	if err != nil {
		argoserr.FatalError(argoserr.NewStoreError("failed to compute flaky entities", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(flaky)
		return
	}
	ui.Header("Flaky Entities")
	for _, f := range flaky {
		fmt.Printf("%s  failure_rate=%.1f%%  runs=%d\n", ui.Label(f.EntityID), f.FailureRate*100, f.TotalRuns)
	}
}

func runStatsEntity(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("stats entity", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}
	if fs.NArg() != 1 {
		argoserr.FatalError(argoserr.NewInputError(
			"entity id required", "no positional argument given", "argos stats entity ENTITY_ID",
		), globals.JSON)
	}
	entityID := fs.Arg(0)

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	st, err := store.GetEntityStatistics(context.Background(), entityID)
	if err != nil {
		argoserr.FatalError(argoserr.NewNotFoundError("entity not found", entityID, "check the entity id with 'argos history'"), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(st)
		return
	}
	ui.Header(st.EntityID)
	fmt.Printf("runs=%d passed=%d failed=%d skipped=%d failure_rate=%.1f%% avg_duration=%.3fs\n",
		st.TotalRuns, st.Passed, st.Failed, st.Skipped, st.FailureRate*100, st.AvgDuration)
}
