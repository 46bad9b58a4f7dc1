// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngest holds the Prometheus metrics for the ingestion pipeline.
type metricsIngest struct {
	once sync.Once

	batchesTotal       *prometheus.CounterVec
	batchErrors        *prometheus.CounterVec
	rowsIngested       *prometheus.CounterVec
	entitiesRecomputed prometheus.Counter
	batchDuration      *prometheus.HistogramVec
}

var ingestMetrics metricsIngest

func (m *metricsIngest) init() {
	m.once.Do(func() {
		m.batchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argos_ingest_batches_total", Help: "Ingest batches committed, by kind.",
		}, []string{"kind"})
		m.batchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argos_ingest_batch_errors_total", Help: "Ingest batches that rolled back, by kind.",
		}, []string{"kind"})
		m.rowsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argos_ingest_rows_total", Help: "Rows inserted across committed batches, by kind.",
		}, []string{"kind"})
		m.entitiesRecomputed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argos_ingest_entities_recomputed_total", Help: "EntityStatistics rows recomputed across all ingests.",
		})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.batchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "argos_ingest_batch_seconds", Help: "Ingest batch duration, by kind.", Buckets: buckets,
		}, []string{"kind"})

		prometheus.MustRegister(
			m.batchesTotal, m.batchErrors, m.rowsIngested, m.entitiesRecomputed, m.batchDuration,
		)
	})
}
