// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package report renders query results into HTML or Markdown (spec §4.9).
// Every renderer is a pure function of its input: the same report struct
// always produces byte-identical output, since no renderer embeds a
// timestamp beyond whatever the caller already put in the data.
package report
