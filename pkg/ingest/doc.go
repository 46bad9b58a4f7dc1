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

// Package ingest orchestrates pkg/parsers output into pkg/anvil writes.
// Every Ingest call opens exactly one anvil write transaction: it performs
// every insert the batch requires, recomputes the rollups of every entity
// the batch touched, and commits as a unit. A failure anywhere in that
// sequence rolls back the whole batch — partial ingestion is never visible
// to readers.
package ingest
