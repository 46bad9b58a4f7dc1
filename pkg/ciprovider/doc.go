// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package ciprovider is a narrow client over a GitHub-Actions-shaped REST
// surface: workflow runs, their jobs, job logs, and run artifacts. It
// authenticates with a caller-supplied bearer token, retries 429/5xx
// responses with jittered exponential backoff, and pages transparently
// until the caller's limit is satisfied.
//
// Nothing in this package writes to anvil.Store; pkg/ingest turns the
// seeds returned here into ExecutionHistory, CIWorkflowRun, and
// CIWorkflowJob rows.
package ciprovider
