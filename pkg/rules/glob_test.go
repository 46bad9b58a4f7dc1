// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package rules

import "testing"

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"exact match", "foo.go", "foo.go", true},
		{"exact no match", "foo.go", "bar.go", false},
		{"star suffix ext", "src/foo.go", "*.go", true},
		{"star no match ext", "src/foo.txt", "*.go", false},
		{"doublestar any depth", "a/b/c/foo.go", "**/*.go", true},
		{"doublestar directory", "node_modules/pkg/index.js", "node_modules/**", true},
		{"doublestar no match outside dir", "src/node_modules_like/x.js", "node_modules/**", false},
		{"question mark", "foo.go", "fo?.go", true},
		{"question mark no match", "fooo.go", "fo?.go", false},
		{"char class range", "file1.go", "file[0-9].go", true},
		{"char class range no match", "filea.go", "file[0-9].go", false},
		{"negated class", "foo.go", "foo.[!ab]o", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchGlob(tt.path, tt.pattern); got != tt.want {
				t.Errorf("MatchGlob(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}
