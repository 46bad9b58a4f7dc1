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

// Package argoserr provides structured error handling for the Argos CLI and
// HTTP surface.
//
// It defines UserError, a type that carries what went wrong, why, and how to
// fix it, plus the machine code used by both the CLI's --json mode and the
// HTTP layer's JSON error body. UserError wraps a Kind drawn from the
// taxonomy the rest of Argos surfaces at its outer boundary: config, store,
// network (CI), input, permission, not-found, parse, and internal.
//
// Components below the CLI/HTTP boundary never construct a UserError
// directly; they return the typed errors of their own package
// (pkg/anvil.Error, pkg/parsers.ParseError, pkg/ciprovider.Error, ...) and
// the outermost layer translates those into a UserError for presentation.
package argoserr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Process exit codes. Argos's CLI contract (spec §6.1) only distinguishes
// three outcomes: success, a completed execution with test failures, and an
// operational error. Kind is still tracked on UserError for the "code" field
// of --json/HTTP output, but every UserError maps to ExitOperational.
const (
	ExitSuccess     = 0
	ExitTestFailure = 1
	ExitOperational = 2
)

// Kind distinguishes the category of an operational error for machine
// consumption (the "code" field of JSON output).
type Kind string

const (
	KindConfig     Kind = "config"
	KindStore      Kind = "store"
	KindNetwork    Kind = "network"
	KindInput      Kind = "input"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindParse      Kind = "parse"
	KindInternal   Kind = "internal"
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: what went wrong (user-facing error description)
//   - Cause: why it happened (diagnostic information)
//   - Fix: how to fix it (actionable suggestion)
type UserError struct {
	Kind    Kind
	Message string
	Cause   string
	Fix     string
	Err     error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap enables errors.Is/errors.As over the wrapped cause.
func (e *UserError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code for this error (always
// ExitOperational; ExitTestFailure is signaled directly by the `execute`
// command, not by constructing a UserError).
func (e *UserError) ExitCode() int {
	return ExitOperational
}

func newError(kind Kind, msg, cause, fix string, err error) *UserError {
	return &UserError{Kind: kind, Message: msg, Cause: cause, Fix: fix, Err: err}
}

// NewConfigError reports a missing, invalid, or malformed config/rules file.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newError(KindConfig, msg, cause, fix, err)
}

// NewStoreError reports a StoreError surfaced from pkg/anvil (constraint,
// busy, corruption).
func NewStoreError(msg, cause, fix string, err error) *UserError {
	return newError(KindStore, msg, cause, fix, err)
}

// NewNetworkError reports a CIError or other remote-call failure.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newError(KindNetwork, msg, cause, fix, err)
}

// NewInputError reports invalid CLI arguments or request parameters.
func NewInputError(msg, cause, fix string) *UserError {
	return newError(KindInput, msg, cause, fix, nil)
}

// NewPermissionError reports a filesystem or auth permission failure.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newError(KindPermission, msg, cause, fix, err)
}

// NewNotFoundError reports an unknown rule, execution, or entity.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newError(KindNotFound, msg, cause, fix, nil)
}

// NewParseError reports malformed tool output (test/lint/coverage/CI log).
func NewParseError(msg, cause, fix string, err error) *UserError {
	return newError(KindParse, msg, cause, fix, err)
}

// NewInternalError reports a bug: an assertion failure or unexpected nil.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newError(KindInternal, msg, cause, fix, err)
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// JSON is the wire shape of a UserError for --json CLI output and the HTTP
// JSON error body.
type JSON struct {
	Code  string `json:"code"`
	Error string `json:"error"`
	Cause string `json:"cause,omitempty"`
	Fix   string `json:"fix,omitempty"`
}

// ToJSON converts the UserError to its JSON-serializable form.
func (e *UserError) ToJSON() JSON {
	return JSON{
		Code:  string(e.Kind),
		Error: e.Message,
		Cause: e.Cause,
		Fix:   e.Fix,
	}
}

// FatalError prints the error and exits with the appropriate code. It never
// returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitOperational)
}
