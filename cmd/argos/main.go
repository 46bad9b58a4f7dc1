// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package main implements the Argos CLI: a rule-driven test-execution
// scheduler and developer-observability surface (spec.md §6.1).
//
// Usage:
//
//	argos execute --rule NAME      Run a rule-driven execution
//	argos rules list|sync          Manage execution rules
//	argos stats flaky|entity       Query entity statistics
//	argos history                  Query execution history
//	argos ci sync|compare          Sync and compare against CI
//	argos serve                    Start the HTTP/WebSocket query service
package main

import (
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/argos/internal/argoserr"
	"github.com/kraklabs/argos/internal/ui"
)

// GlobalFlags are the flags every subcommand accepts, parsed before the
// subcommand name.
type GlobalFlags struct {
	Config  string
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

func main() {
	fs := flag.NewFlagSet("argos", flag.ContinueOnError)
	globals := GlobalFlags{}
	fs.StringVar(&globals.Config, "config", ".argos.yaml", "path to the project config file")
	fs.BoolVar(&globals.JSON, "json", false, "emit machine-readable JSON output")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress progress output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "disable colored output")
	fs.CountVarP(&globals.Verbose, "verbose", "v", "increase log verbosity (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `argos — rule-driven test execution and developer observability

Usage:
  argos <command> [options]

Commands:
  execute   Run a rule-driven execution
  rules     Manage execution rules (list, sync, enable, disable, delete)
  stats     Query per-entity statistics and flaky entities
  history   Query execution history
  ci        Sync CI runs and compare local vs CI outcomes
  serve     Start the HTTP/WebSocket query service

Global Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	ui.InitColors(globals.NoColor)

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(argoserr.ExitOperational)
	}

	slog.SetDefault(slog.New(newLogHandler(globals)))

	command, rest := args[0], args[1:]
	switch command {
	case "execute":
		runExecute(rest, globals)
	case "rules":
		runRules(rest, globals)
	case "stats":
		runStats(rest, globals)
	case "history":
		runHistory(rest, globals)
	case "ci":
		runCI(rest, globals)
	case "serve":
		runServe(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "argos: unknown command %q\n", command)
		fs.Usage()
		os.Exit(argoserr.ExitOperational)
	}
}

func newLogHandler(globals GlobalFlags) slog.Handler {
	level := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if globals.JSON {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}
