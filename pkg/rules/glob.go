// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package rules

import "strings"

// MatchGlob reports whether path matches pattern. Supports `*` (any run of
// non-separator characters), `**` (any run of characters, including
// separators, at any depth — spec §4.4's "glob; ** matches across path
// separators"), `?` (one non-separator character), and `[...]` character
// classes (`[abc]`, `[a-z]`, negated with `[!...]` or `[^...]`).
//
// A pattern with no `**` still matches anywhere along the path: `*.go`
// matches `a/b/c.go`, and a literal pattern matches as a whole path or as
// one of its trailing path components.
func MatchGlob(path, pattern string) bool {
	path = toSlash(path)
	pattern = toSlash(pattern)

	if literal(pattern) {
		return path == pattern || strings.HasSuffix(path, "/"+pattern)
	}

	if matchSegment(path, pattern) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if matchSegment(strings.Join(parts[i:], "/"), pattern) {
			return true
		}
	}
	return false
}

func literal(pattern string) bool {
	return !strings.ContainsAny(pattern, "*?[")
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// matchSegment matches pattern against the whole of path (not a suffix
// search — callers retry at each path depth for that).
func matchSegment(path, pattern string) bool {
	return matchFrom(path, pattern, 0, 0)
}

func matchFrom(path, pattern string, pi, ti int) bool {
	for ti < len(pattern) {
		switch {
		case ti+1 < len(pattern) && pattern[ti] == '*' && pattern[ti+1] == '*':
			rest := ti + 2
			if rest < len(pattern) && pattern[rest] == '/' {
				rest++
			}
			if rest >= len(pattern) {
				return true
			}
			for i := pi; i <= len(path); i++ {
				if matchFrom(path, pattern, i, rest) {
					return true
				}
			}
			return false

		case pattern[ti] == '*':
			for i := pi; i <= len(path); i++ {
				if i > pi && path[i-1] == '/' {
					break
				}
				if matchFrom(path, pattern, i, ti+1) {
					return true
				}
			}
			return false

		case pattern[ti] == '?':
			if pi >= len(path) || path[pi] == '/' {
				return false
			}
			pi++
			ti++

		case pattern[ti] == '[':
			end := strings.IndexByte(pattern[ti:], ']')
			if end < 0 || pi >= len(path) || path[pi] == '/' {
				return false
			}
			if !matchClass(pattern[ti:ti+end+1], path[pi]) {
				return false
			}
			pi++
			ti += end + 1

		default:
			if pi >= len(path) || path[pi] != pattern[ti] {
				return false
			}
			pi++
			ti++
		}
	}
	return pi == len(path)
}

// matchClass matches c against a bracket expression like "[abc]",
// "[a-z]", "[!abc]", or "[^abc]".
func matchClass(class string, c byte) bool {
	body := class[1 : len(class)-1]
	negate := false
	if len(body) > 0 && (body[0] == '!' || body[0] == '^') {
		negate = true
		body = body[1:]
	}
	matched := false
	for i := 0; i < len(body); i++ {
		if i+2 < len(body) && body[i+1] == '-' {
			if body[i] <= c && c <= body[i+2] {
				matched = true
			}
			i += 2
			continue
		}
		if body[i] == c {
			matched = true
		}
	}
	return matched != negate
}
