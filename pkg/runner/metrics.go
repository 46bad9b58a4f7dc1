// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsRunner holds the Prometheus metrics for subprocess execution.
type metricsRunner struct {
	once sync.Once

	runsTotal    prometheus.Counter
	runsTimedOut prometheus.Counter
	runsFailed   prometheus.Counter
	runDuration  prometheus.Histogram
}

var runnerMetrics metricsRunner

func (m *metricsRunner) init() {
	m.once.Do(func() {
		m.runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argos_runner_runs_total", Help: "Subprocess invocations started.",
		})
		m.runsTimedOut = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argos_runner_runs_timed_out_total", Help: "Subprocess invocations that hit their timeout.",
		})
		m.runsFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argos_runner_runs_failed_total", Help: "Subprocess invocations that could not even be started or waited on.",
		})

		buckets := []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "argos_runner_run_seconds", Help: "Subprocess wall-clock duration.", Buckets: buckets,
		})

		prometheus.MustRegister(m.runsTotal, m.runsTimedOut, m.runsFailed, m.runDuration)
	})
}
