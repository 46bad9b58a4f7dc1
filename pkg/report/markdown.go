// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"strings"
)

// writeMarkdownTable appends a GitHub-flavored-Markdown table to b: a
// header row, a separator row, then one row per entry in rows (each
// already formatted as its cell values).
func writeMarkdownTable(b *strings.Builder, headers []string, rows [][]string) {
	fmt.Fprintf(b, "| %s |\n", strings.Join(headers, " | "))
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range rows {
		fmt.Fprintf(b, "| %s |\n", strings.Join(row, " | "))
	}
}
