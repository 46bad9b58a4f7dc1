// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/argos/internal/argoserr"
	"github.com/kraklabs/argos/internal/config"
	"github.com/kraklabs/argos/internal/output"
	"github.com/kraklabs/argos/internal/ui"
	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/ciprovider"
	"github.com/kraklabs/argos/pkg/ingest"
)

// runCI implements `argos ci {sync,compare}` (spec.md §4.7, §4.8.2).
func runCI(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: argos ci <sync|compare> [options]")
		os.Exit(argoserr.ExitOperational)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "sync":
		runCISync(rest, globals)
	case "compare":
		runCICompare(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "argos ci: unknown subcommand %q\n", sub)
		os.Exit(argoserr.ExitOperational)
	}
}

// newCIClient builds a ciprovider.Client from the project's ci.* config and
// the --owner/--repo flags, reading the bearer token from the env var
// ci.token_env names (spec.md §6.4).
func newCIClient(project *config.Project, owner, repo string, globals GlobalFlags) *ciprovider.Client {
	if owner == "" || repo == "" {
		argoserr.FatalError(argoserr.NewInputError(
			"owner and repo are required", "--owner/--repo not set", "pass --owner ORG --repo NAME",
		), globals.JSON)
	}
	token := ""
	if project.CI.TokenEnv != "" {
		token = os.Getenv(project.CI.TokenEnv)
	}
	if token == "" {
		argoserr.FatalError(argoserr.NewConfigError(
			"no CI token configured", "ci.token_env is unset or empty in the environment", "set ci.token_env in "+globals.Config+" and export that variable", nil,
		), globals.JSON)
	}
	return ciprovider.New("", owner, repo, token, nil)
}

func runCISync(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ci sync", flag.ExitOnError)
	owner := fs.String("owner", "", "GitHub organization/owner")
	repo := fs.String("repo", "", "GitHub repository name")
	workflow := fs.String("workflow", "", "restrict to one workflow name")
	branch := fs.String("branch", "", "restrict to one branch")
	limit := fs.Int("limit", 20, "maximum runs to sync")
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	ci := newCIClient(project, *owner, *repo, globals)
	pipeline := ingest.New(store, nil)

	ctx := context.Background()
	runs, err := ci.ListRuns(ctx, ciprovider.RunFilter{Workflow: *workflow, Branch: *branch, Limit: *limit})
	if err != nil {
		argoserr.FatalError(argoserr.NewNetworkError("failed to list CI runs", err.Error(), "", err), globals.JSON)
	}

	synced := 0
	for _, run := range runs {
		jobs, err := ci.ListJobs(ctx, run.RemoteRunID)
		if err != nil {
			argoserr.FatalError(argoserr.NewNetworkError("failed to list jobs for run "+run.RemoteRunID, err.Error(), "", err), globals.JSON)
		}
		fetchJobLogs(ctx, ci, jobs)
		if _, err := pipeline.IngestCIRun(ctx, run, jobs); err != nil {
			argoserr.FatalError(argoserr.NewStoreError("failed to ingest CI run "+run.RemoteRunID, err.Error(), "", err), globals.JSON)
		}
		synced++
	}
	ui.Successf("synced %d CI run(s)", synced)
}

// fetchJobLogs fills in each job's LogContent from the provider so
// IngestCIRun can turn it into space=ci ExecutionHistory rows (spec
// §4.8.2). A job whose log can't be fetched is left as-is and simply
// contributes no history rows; one flaky log fetch shouldn't fail the
// whole sync.
func fetchJobLogs(ctx context.Context, ci *ciprovider.Client, jobs []anvil.CIWorkflowJob) {
	for i := range jobs {
		if jobs[i].TestResultsJSON != nil {
			continue
		}
		data, err := ci.FetchJobLog(ctx, jobs[i].RemoteJobID)
		if err != nil {
			continue
		}
		log := string(data)
		jobs[i].LogContent = &log
	}
}

func runCICompare(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ci compare", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}
	if fs.NArg() != 1 {
		argoserr.FatalError(argoserr.NewInputError(
			"entity id required", "no positional argument given", "argos ci compare ENTITY_ID",
		), globals.JSON)
	}
	entityID := fs.Arg(0)

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	local, err := store.GetExecutionHistory(context.Background(), anvil.HistoryFilter{EntityID: entityID, Space: anvil.SpaceLocal, Limit: 1})
	if err != nil {
		argoserr.FatalError(argoserr.NewStoreError("failed to query local history", err.Error(), "", err), globals.JSON)
	}
	ciRows, err := store.GetExecutionHistory(context.Background(), anvil.HistoryFilter{EntityID: entityID, Space: anvil.SpaceCI})
	if err != nil {
		argoserr.FatalError(argoserr.NewStoreError("failed to query CI history", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		out := map[string]any{"local": local, "ci": ciRows}
		_ = output.JSON(out)
		return
	}

	ui.Header("Local vs CI: " + entityID)
	if len(local) == 0 {
		fmt.Println("no local history")
	} else {
		fmt.Printf("local:  %s\n", ui.Outcome(string(local[0].Status)).Sprint(local[0].Status))
	}
	for _, row := range ciRows {
		fmt.Printf("ci:     %s  (%s)\n", ui.Outcome(string(row.Status)).Sprint(row.Status), strings.TrimPrefix(row.ExecutionID, "ci-"))
	}
}
