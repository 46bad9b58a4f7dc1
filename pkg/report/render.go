// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import "fmt"

// Format selects the rendered output shape.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Renderable is any report this package knows how to render both ways.
type Renderable interface {
	RenderHTML() (string, error)
	RenderMarkdown() (string, error)
}

// Render dispatches r to the renderer named by format.
func Render(r Renderable, format Format) (string, error) {
	switch format {
	case FormatHTML:
		return r.RenderHTML()
	case FormatMarkdown:
		return r.RenderMarkdown()
	default:
		return "", fmt.Errorf("report: unknown format %q", format)
	}
}
