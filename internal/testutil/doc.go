// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for Argos's packages: a
// temp-file anvil.Store factory plus fixture builders for the row types
// that ingestion and the query layer operate on.
package testutil
