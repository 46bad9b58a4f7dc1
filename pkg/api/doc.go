// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package api is Argos's Query/Comparison Service (spec §4.8): a chi HTTP
// router over pkg/anvil, pkg/rules, pkg/stats, pkg/ingest, pkg/runner and
// pkg/ciprovider, plus a WebSocket broadcaster for rule-driven execution
// progress. Every handler is a thin wrapper over the store and pure
// analytics — orchestration of a running execution lives in executor.go,
// not in the handlers themselves.
package api
