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

// Package rules turns a declarative anvil.ExecutionRule into a concrete,
// ordered set of entity ids to run next (spec §4.4). Evaluation is
// read-only against the store; the engine never mutates anvil state. The
// package also owns the state machine of one rule-driven execution
// (PENDING→SELECTING→EXECUTING→INGESTING→SUMMARIZING→DONE|CANCELLED|FAILED).
package rules
