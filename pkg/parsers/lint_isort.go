// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package parsers

import "strings"

const isortErrorMarker = "ERROR: "

// ParseIsort parses import-sorter-style (isort-like) output: lines
// `ERROR: FILE ...` yield one WARNING with code ISORT001 (spec §4.2.2).
func ParseIsort(output string) ([]LintViolation, LintSummary, error) {
	var violations []LintViolation

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, isortErrorMarker) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, isortErrorMarker))
		file, message, ok := strings.Cut(rest, " ")
		if !ok {
			file = rest
			message = ""
		}
		if file == "" {
			continue
		}
		violations = append(violations, LintViolation{
			FilePath: normalizePath(file),
			Line:     1,
			Severity: SeverityWarning,
			Code:     "ISORT001",
			Message:  strings.TrimSpace(message),
		})
	}

	return violations, buildSummary(violations), nil
}
