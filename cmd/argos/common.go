// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/kraklabs/argos/internal/argoserr"
	"github.com/kraklabs/argos/internal/config"
	"github.com/kraklabs/argos/pkg/anvil"
)

// loadProject loads the project config at globals.Config, falling back to
// an empty default project when the file does not exist (spec.md §6.3: a
// missing DB file is a valid reset, and a missing config is a valid "use
// every default" state).
func loadProject(globals GlobalFlags) *config.Project {
	p, err := config.Load(globals.Config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &config.Project{}
		}
		argoserr.FatalError(argoserr.NewConfigError(
			"failed to load project config",
			err.Error(),
			"check "+globals.Config+" for YAML syntax errors",
			err,
		), globals.JSON)
	}
	return p
}

func openStore(project *config.Project, logger *slog.Logger, globals GlobalFlags) *anvil.Store {
	path := project.History.Database
	if path == "" {
		path = ".anvil/history.db"
	}
	store, err := anvil.Open(path, logger)
	if err != nil {
		argoserr.FatalError(argoserr.NewStoreError(
			"failed to open history store",
			err.Error(),
			"check that "+path+" is writable, or delete it to reset",
			err,
		), globals.JSON)
	}
	return store
}
