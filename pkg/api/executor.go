// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kraklabs/argos/internal/config"
	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/ingest"
	"github.com/kraklabs/argos/pkg/parsers"
	"github.com/kraklabs/argos/pkg/rules"
	"github.com/kraklabs/argos/pkg/runner"
)

// errNoSuchExecution is returned by cancel/status lookups for an
// execution_id the executor never started, or one that has already
// reached a terminal state.
var errNoSuchExecution = errors.New("api: no such execution")

// executor drives one rule-driven execution through the
// PENDING→SELECTING→EXECUTING→INGESTING→SUMMARIZING→DONE state machine of
// pkg/rules, broadcasting progress over the hub as it goes (spec §4.4,
// §4.8.1 "Start rule-driven execution").
type executor struct {
	srv    *Server
	logger *slog.Logger

	mu   sync.Mutex
	runs map[string]*runState
}

type runState struct {
	run    *rules.Run
	cancel context.CancelFunc
}

func newExecutor(srv *Server, logger *slog.Logger) *executor {
	return &executor{srv: srv, logger: logger, runs: map[string]*runState{}}
}

// start looks up ruleName, registers a new run in PENDING, and drives it
// to completion on a detached goroutine. It returns immediately with the
// new execution_id (spec §4.8.1: "execution_id + WS URL").
func (e *executor) start(ctx context.Context, ruleName string, sc rules.SelectionContext) (string, error) {
	rule, err := e.srv.store.GetExecutionRule(ctx, ruleName)
	if err != nil {
		return "", err
	}

	executionID := ingest.LocalExecutionID(time.Now())
	runCtx, cancel := context.WithCancel(context.Background())
	run := rules.NewRun()

	e.mu.Lock()
	e.runs[executionID] = &runState{run: run, cancel: cancel}
	e.mu.Unlock()

	ch := e.srv.hub.register(executionID)
	go e.lifecycle(runCtx, executionID, *rule, sc)
	_ = ch

	e.logger.Info("api.execution.start", "execution_id", executionID, "rule", rule.Name)
	return executionID, nil
}

// cancel requests cancellation of an in-flight execution (spec §4.4:
// accepted only in EXECUTING/INGESTING; rules.Run.Cancel enforces this).
func (e *executor) cancel(executionID string) error {
	e.mu.Lock()
	rs := e.runs[executionID]
	e.mu.Unlock()
	if rs == nil {
		return errNoSuchExecution
	}
	if err := rs.run.Cancel(); err != nil {
		return err
	}
	rs.cancel()
	return nil
}

func (e *executor) finish(executionID string) {
	e.mu.Lock()
	delete(e.runs, executionID)
	e.mu.Unlock()
	time.AfterFunc(2*time.Minute, func() { e.srv.hub.unregister(executionID) })
}

func (e *executor) broadcast(executionID, stage string, percent float64, st progressStats) {
	e.srv.hub.publish(executionID, progressMessage{Stage: stage, Percent: percent, Stats: st, Ts: time.Now().UTC()})
}

func (e *executor) fail(ctx context.Context, executionID string, run *rules.Run, err error) {
	e.logger.Error("api.execution.failed", "execution_id", executionID, "error", err)
	if terr := run.Transition(rules.StateFailed); terr != nil {
		e.logger.Warn("api.execution.transition_failed", "execution_id", executionID, "error", terr)
	}
	e.broadcast(executionID, string(rules.StateFailed), 100, progressStats{})
	e.finish(executionID)
}

func (e *executor) lifecycle(ctx context.Context, executionID string, rule anvil.ExecutionRule, sc rules.SelectionContext) {
	run := mustRunState(e, executionID)
	defer func() {
		if r := recover(); r != nil {
			e.fail(ctx, executionID, run, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := run.Transition(rules.StateSelecting); err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}
	e.broadcast(executionID, string(rules.StateSelecting), 10, progressStats{})

	rule.Groups = config.ExpandGroups(rule.Groups, sc.ChangedFiles)
	sel, err := e.srv.engine.Select(ctx, rule, sc)
	if err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}
	if len(sel.EntityIDs) == 0 {
		if err := run.Transition(rules.StateDone); err != nil {
			e.fail(ctx, executionID, run, err)
			return
		}
		e.broadcast(executionID, string(rules.StateDone), 100, progressStats{})
		e.finish(executionID)
		return
	}

	if err := run.Transition(rules.StateExecuting); err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}
	e.broadcast(executionID, string(rules.StateExecuting), 30, progressStats{})

	reportPath := filepath.Join(os.TempDir(), "argos-report-"+executionID+".json")
	defer os.Remove(reportPath)

	opts := buildRunnerOptions(rule, sel, reportPath, &wsSink{hub: e.srv.hub, executionID: executionID})
	_, err = e.srv.adapter.Run(ctx, opts)
	if ctx.Err() != nil {
		if terr := run.Cancel(); terr != nil {
			e.logger.Warn("api.execution.cancel_transition_failed", "execution_id", executionID, "error", terr)
		}
		e.broadcast(executionID, string(rules.StateCancelled), 100, progressStats{})
		e.finish(executionID)
		return
	}
	if err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}

	if err := run.Transition(rules.StateIngesting); err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}
	e.broadcast(executionID, string(rules.StateIngesting), 70, progressStats{})

	results, err := runner.ReadReport(reportPath)
	if err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}

	ictx := ingest.Context{
		ExecutionID: executionID,
		Space:       anvil.SpaceLocal,
		Timestamp:   time.Now().UTC(),
		Metadata:    map[string]string{"rule": rule.Name},
	}
	if _, err := e.srv.pipeline.IngestTestReport(ctx, ictx, results); err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}

	if err := run.Transition(rules.StateSummarizing); err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}
	st := tallyOutcomes(results)
	e.broadcast(executionID, string(rules.StateSummarizing), 90, st)

	if err := run.Transition(rules.StateDone); err != nil {
		e.fail(ctx, executionID, run, err)
		return
	}
	e.broadcast(executionID, string(rules.StateDone), 100, st)
	e.finish(executionID)
}

func mustRunState(e *executor, executionID string) *rules.Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs[executionID].run
}

// buildRunnerOptions translates rule.ExecutorConfig and a Selection into
// subprocess options. The convention — "command" is the executable,
// "args" a space-separated base argument list, "report_flag" the flag the
// runner expects before its report path, selected entity ids appended as
// trailing positional arguments — is Argos's own, since spec.md leaves
// the runner's actual CLI contract to deployment configuration.
func buildRunnerOptions(rule anvil.ExecutionRule, sel *rules.Selection, reportPath string, sink *wsSink) runner.Options {
	command := rule.ExecutorConfig["command"]
	if command == "" {
		command = "pytest"
	}
	reportFlag := rule.ExecutorConfig["report_flag"]
	if reportFlag == "" {
		reportFlag = "--report-path"
	}

	var args []string
	if base := rule.ExecutorConfig["args"]; base != "" {
		args = append(args, strings.Fields(base)...)
	}
	args = append(args, reportFlag, reportPath)
	if sel.RunnerFilters.Marker != "" {
		args = append(args, "-m", sel.RunnerFilters.Marker)
	}
	if sel.RunnerFilters.Pattern != "" {
		args = append(args, "-k", sel.RunnerFilters.Pattern)
	}
	args = append(args, sel.EntityIDs...)

	return runner.Options{
		Command: command,
		Args:    args,
		Dir:     rule.ExecutorConfig["dir"],
		Sink:    sink,
	}
}

func tallyOutcomes(results []parsers.TestResult) progressStats {
	var st progressStats
	for _, r := range results {
		st.Ran++
		switch r.Outcome {
		case parsers.OutcomePassed:
			st.Passed++
		case parsers.OutcomeSkipped:
			st.Skipped++
		default:
			st.Failed++
		}
	}
	return st
}

// wsSink adapts the hub's publish method to io.Writer so runner.Options.Sink
// can stream subprocess output into WebSocket progress messages (spec
// §4.6: "the adapter MUST stream the runner's stdout/stderr to an
// optional sink (used by WebSocket progress)").
type wsSink struct {
	hub         *hub
	executionID string
}

func (w *wsSink) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	if line != "" {
		w.hub.publish(w.executionID, progressMessage{
			Stage:         string(rules.StateExecuting),
			CurrentEntity: line,
			Ts:            time.Now().UTC(),
		})
	}
	return len(p), nil
}
