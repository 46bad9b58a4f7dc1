// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// metricsAPI holds the Prometheus metrics for the HTTP service.
type metricsAPI struct {
	once sync.Once

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	wsConnections   prometheus.Gauge
}

var apiMetrics metricsAPI

func (m *metricsAPI) init() {
	m.once.Do(func() {
		m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argos_api_requests_total", Help: "HTTP requests served, by route and status.",
		}, []string{"route", "method", "status"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "argos_api_request_seconds", Help: "HTTP request duration, by route and method.", Buckets: buckets,
		}, []string{"route", "method"})

		m.wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argos_api_websocket_connections", Help: "Currently open execution-progress WebSocket connections.",
		})

		prometheus.MustRegister(m.requestsTotal, m.requestDuration, m.wsConnections)
	})
}

// statusRecorder captures the status code a handler wrote, defaulting to
// 200 when the handler never calls WriteHeader explicitly.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// httpMetrics is chi middleware recording per-route request count and
// duration.
func httpMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		apiMetrics.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		apiMetrics.requestsTotal.WithLabelValues(route, r.Method, http.StatusText(rec.status)).Inc()
	})
}
