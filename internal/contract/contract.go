// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract provides size-limit constants and validation shared by
// every ingestion entry point (test report JSON, lint stdout, coverage XML,
// CI logs).
//
// Argos's ingestion pipeline (pkg/ingest) is handed raw tool output before
// it is known to be well-formed. This package enforces a soft upper bound
// on that input so a malformed or runaway CI log cannot exhaust process
// memory before pkg/parsers ever gets a chance to reject it with a
// ParseError.
package contract

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// DefaultSoftLimitBytes is the baseline soft limit for a single raw
	// ingestion payload (test report, lint stdout, coverage XML, or CI log).
	DefaultSoftLimitBytes = 64 << 20 // 64 MiB

	// RequestIDMaxBytes is the maximum length of an execution_id.
	RequestIDMaxBytes = 128
)

// SoftLimitBytes returns the effective soft limit for a raw ingestion
// payload. Controlled via env ARGOS_SOFT_LIMIT_BYTES; falls back to
// DefaultSoftLimitBytes.
func SoftLimitBytes() int {
	if v := os.Getenv("ARGOS_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidatePayload checks a raw ingestion payload against the soft size
// limit before it is handed to a pkg/parsers parser.
func ValidatePayload(payload []byte) *ValidationResult {
	if len(payload) > SoftLimitBytes() {
		return &ValidationResult{
			OK:      false,
			Message: fmt.Sprintf("payload of %d bytes exceeds soft limit of %d bytes", len(payload), SoftLimitBytes()),
		}
	}
	return &ValidationResult{OK: true}
}

// ValidateExecutionID checks that an execution_id is non-empty and within
// RequestIDMaxBytes.
func ValidateExecutionID(id string) *ValidationResult {
	if id == "" {
		return &ValidationResult{OK: false, Message: "execution_id must not be empty"}
	}
	if len(id) > RequestIDMaxBytes {
		return &ValidationResult{OK: false, Message: fmt.Sprintf("execution_id exceeds %d bytes", RequestIDMaxBytes)}
	}
	return &ValidationResult{OK: true}
}
