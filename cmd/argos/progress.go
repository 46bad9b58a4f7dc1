// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines whether progress output is shown during
// `argos execute`.
type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// NewProgressConfig derives a ProgressConfig from global flags and TTY
// detection: progress is disabled under --json, --quiet, or when stderr
// is not a terminal (piped output, CI logs).
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.JSON && !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd())
	return ProgressConfig{Enabled: enabled, Writer: os.Stderr, NoColor: globals.NoColor}
}

// NewProgressBar creates a spinner-style bar (total < 0) for `execute`,
// which cannot know the entity count the runner will emit progress for
// ahead of time. Returns nil when progress is disabled; callers must
// treat a nil bar as a no-op sink.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}

func finishProgress(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

// progressSink adapts a (possibly nil) progress bar into an io.Writer that
// the runner adapter streams test-runner stdout lines into.
type progressSink struct {
	bar *progressbar.ProgressBar
}

func (s progressSink) Write(p []byte) (int, error) {
	if s.bar == nil {
		return len(p), nil
	}
	if line := strings.TrimSpace(string(p)); line != "" {
		s.bar.Describe(line)
		_ = s.bar.Add(1)
	}
	return len(p), nil
}
