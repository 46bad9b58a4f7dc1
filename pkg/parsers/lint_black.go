// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package parsers

import "strings"

const blackReformatMarker = "would reformat "

// ParseBlack parses formatter-style (black-like) output: any line matching
// "would reformat FILE" yields one WARNING with code BLACK001 at line 1.
// Stderr noise is ignored (spec §4.2.2).
func ParseBlack(output string) ([]LintViolation, LintSummary, error) {
	var violations []LintViolation

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		idx := strings.Index(line, blackReformatMarker)
		if idx < 0 {
			continue
		}
		file := strings.TrimSpace(line[idx+len(blackReformatMarker):])
		if file == "" {
			continue
		}
		violations = append(violations, LintViolation{
			FilePath: normalizePath(file),
			Line:     1,
			Severity: SeverityWarning,
			Code:     "BLACK001",
			Message:  "would reformat " + file,
		})
	}

	return violations, buildSummary(violations), nil
}
