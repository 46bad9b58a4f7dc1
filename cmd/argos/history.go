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
)

// runHistory implements `argos history`: a filtered view of
// ExecutionHistory rows (spec.md §4.1, §4.8.1).
func runHistory(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	entityID := fs.String("entity-id", "", "restrict to one entity")
	executionID := fs.String("execution-id", "", "restrict to one execution")
	space := fs.String("space", "", "restrict to local or ci")
	limit := fs.Int("limit", 50, "maximum rows to return")
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	rows, err := store.GetExecutionHistory(context.Background(), anvil.HistoryFilter{
		EntityID:    *entityID,
		ExecutionID: *executionID,
		Space:       anvil.Space(*space),
		Limit:       *limit,
	})
	if err != nil {
		argoserr.FatalError(argoserr.NewStoreError("failed to query history", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(rows)
		return
	}
	ui.Header("Execution History")
	for _, h := range rows {
		c := ui.Outcome(string(h.Status))
		fmt.Printf("%s  %s  %s  %.3fs  %s\n",
			h.Timestamp.Format("2006-01-02T15:04:05Z"), c.Sprint(h.Status), h.EntityID, h.DurationSeconds, h.ExecutionID)
	}
}
