// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/kraklabs/argos/pkg/anvil"
)

// OpenStore creates a fresh anvil.Store backed by a temp-file SQLite
// database. The store is closed automatically when the test finishes.
//
// Example:
//
//	store := testutil.OpenStore(t)
//	_, err := store.InsertExecutionHistory(ctx, testutil.ExecutionHistory("local-1", "t::a"))
func OpenStore(t *testing.T) *anvil.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	store, err := anvil.Open(path, nil)
	if err != nil {
		t.Fatalf("testutil: open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}
