// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/argos/internal/argoserr"
	"github.com/kraklabs/argos/internal/ui"
	"github.com/kraklabs/argos/pkg/api"
	"github.com/kraklabs/argos/pkg/ciprovider"
)

// runServe implements `argos serve`, starting the Query/Comparison
// Service (spec.md §6.2, spec §4.8).
func runServe(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 8080, "port to listen on")
	owner := fs.String("owner", "", "GitHub organization/owner (enables CI endpoints)")
	repo := fs.String("repo", "", "GitHub repository name (enables CI endpoints)")
	origins := fs.StringSlice("allowed-origins", nil, "CORS allow-list for the browser UI (empty allows every origin)")
	if err := fs.Parse(args); err != nil {
		os.Exit(argoserr.ExitOperational)
	}

	project := loadProject(globals)
	store := openStore(project, nil, globals)
	defer store.Close()

	var ci *ciprovider.Client
	if *owner != "" && *repo != "" && project.CI.TokenEnv != "" {
		if token := os.Getenv(project.CI.TokenEnv); token != "" {
			ci = ciprovider.New("", *owner, *repo, token, nil)
		}
	}
	if ci == nil {
		ui.Warning("no CI provider configured: CI sync and live job-log fetch will return 501")
	}

	srv := api.New(store, ci, nil)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: srv.Router(api.Config{AllowedOrigins: *origins}),
	}

	errCh := make(chan error, 1)
	go func() {
		ui.Successf("listening on :%d", *port)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			argoserr.FatalError(argoserr.NewInternalError("HTTP server failed", err.Error(), "", err), globals.JSON)
		}
	case <-sigCh:
		ui.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			argoserr.FatalError(argoserr.NewInternalError("graceful shutdown failed", err.Error(), "", err), globals.JSON)
		}
	}
}
