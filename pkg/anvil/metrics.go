// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsAnvil holds the Prometheus metrics for the Store.
type metricsAnvil struct {
	once sync.Once

	writesTotal   prometheus.Counter
	writeErrors   prometheus.Counter
	readsTotal    prometheus.Counter
	writersQueued prometheus.Gauge
	writeDuration prometheus.Histogram
	readDuration  prometheus.Histogram
}

var anvilMetrics metricsAnvil

func (m *metricsAnvil) init() {
	m.once.Do(func() {
		m.writesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argos_anvil_writes_total", Help: "Committed write transactions against the Store.",
		})
		m.writeErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argos_anvil_write_errors_total", Help: "Write transactions that rolled back.",
		})
		m.readsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argos_anvil_reads_total", Help: "Read-only queries against the Store.",
		})
		m.writersQueued = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argos_anvil_writers_queued", Help: "Writers currently waiting for the process-wide write lock.",
		})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "argos_anvil_write_seconds", Help: "Write transaction duration.", Buckets: buckets,
		})
		m.readDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "argos_anvil_read_seconds", Help: "Read query duration.", Buckets: buckets,
		})

		prometheus.MustRegister(
			m.writesTotal, m.writeErrors, m.readsTotal, m.writersQueued,
			m.writeDuration, m.readDuration,
		)
	})
}
