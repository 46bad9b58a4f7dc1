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

// Package parsers turns raw tool output into typed records. Every parser
// here is pure: it never touches the filesystem or network, never mutates
// package-level state, and reports malformed input as a *ParseError rather
// than panicking.
//
// Lint parsers are dispatched through a closed tagged variant (Validator)
// rather than a string-keyed registry: Dispatch switches on Validator and
// returns the matching LintParseFunc. Adding a new validator means adding a
// case to Validator's const block and to Dispatch, not registering a new
// string somewhere at init time.
package parsers
