// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"runtime"
	"sync"
)

// Job is one unit of work a Pool runs concurrently.
type Job struct {
	EntityID string
	Options  Options
}

// JobResult pairs a Job's EntityID with its outcome.
type JobResult struct {
	EntityID string
	Result   *Result
	Err      error
}

// Pool runs Jobs with bounded concurrency, default runtime.NumCPU() (spec
// §4.6).
type Pool struct {
	adapter     *Adapter
	concurrency int
}

// NewPool constructs a Pool. concurrency <= 0 means runtime.NumCPU().
func NewPool(adapter *Adapter, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pool{adapter: adapter, concurrency: concurrency}
}

// RunAll runs every job, returning one JobResult per job in arbitrary
// order. It stops launching new jobs once ctx is cancelled but always
// returns a result for every job already started.
func (p *Pool) RunAll(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			results[i] = JobResult{EntityID: job.EntityID, Err: ctx.Err()}
			continue
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := p.adapter.Run(ctx, job.Options)
			results[i] = JobResult{EntityID: job.EntityID, Result: res, Err: err}
		}(i, job)
	}

	wg.Wait()
	return results
}
