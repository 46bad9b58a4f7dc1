// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ciprovider

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsCIProvider holds the Prometheus metrics for outbound CI API calls.
type metricsCIProvider struct {
	once sync.Once

	requestsTotal *prometheus.CounterVec
	retriesTotal  *prometheus.CounterVec
	requestFailed *prometheus.CounterVec
}

var ciProviderMetrics metricsCIProvider

func (m *metricsCIProvider) init() {
	m.once.Do(func() {
		m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argos_ciprovider_requests_total", Help: "CI provider requests that received a final response.",
		}, []string{"path"})
		m.retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argos_ciprovider_retries_total", Help: "CI provider requests retried due to 429/5xx.",
		}, []string{"path"})
		m.requestFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argos_ciprovider_request_errors_total", Help: "CI provider requests that exhausted retries or hit a non-retryable error.",
		}, []string{"path"})

		prometheus.MustRegister(m.requestsTotal, m.retriesTotal, m.requestFailed)
	})
}
