// Copyright 2026 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package anvil is Argos's execution store: the content-addressed,
// append-mostly store of executions, per-entity rollup statistics, lint
// violations, coverage rows, and CI ingestion records.
//
// anvil is an embedded single-file relational database (SQLite, via
// database/sql and github.com/mattn/go-sqlite3) with ACID transactions. One
// writer at a time is allowed; reads are serialized with each other and
// wait for an open write transaction to finish. The default location is
// .anvil/history.db relative to the project root (see DefaultPath).
//
// Every exported Store method that can fail returns an *Error carrying a
// Kind drawn from {Corruption, Busy, Constraint, NotFound}. Callers outside
// this package should use errors.As to inspect it; they should never touch
// *sql.DB directly.
//
// # Usage
//
//	store, err := anvil.Open(anvil.DefaultPath("."), nil)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	id, err := store.InsertExecutionHistory(ctx, anvil.ExecutionHistory{
//	    EntityID:    "a/t::t1",
//	    EntityType:  anvil.EntityTest,
//	    ExecutionID: "local-20260101-000000",
//	    Timestamp:   time.Now(),
//	    Status:      anvil.StatusPassed,
//	    Space:       anvil.SpaceLocal,
//	})
package anvil
