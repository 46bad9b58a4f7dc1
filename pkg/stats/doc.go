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

// Package stats computes EntityStatistics from ExecutionHistory. Compute
// is a pure function over a slice of history rows so it can be called both
// from within an open anvil transaction (pkg/ingest, right after an
// insert) and independently (spec §8.1.5: an independent pass over the
// same rows must reproduce the stored rollup bit-for-bit on integer fields
// and within 1e-9 on floats).
package stats
