// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ciprovider

import (
	"math/rand"
	"net/http"
	"time"
)

// retryConfig is the fixed backoff schedule spec §4.7 mandates for 429s
// and transient 5xx responses: initial 1s, factor 2, capped at 60s, at
// most 6 attempts total.
type retryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
}

var defaultRetry = retryConfig{
	MaxAttempts:    6,
	InitialBackoff: time.Second,
	Multiplier:     2,
	MaxBackoff:     60 * time.Second,
}

// isRetryableStatus reports whether resp warrants another attempt: 429 or
// any 5xx. 4xx other than 429 are surfaced unchanged (spec §4.7).
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// backoffWithJitter returns the exponential delay for attempt (0-based),
// capped at cfg.MaxBackoff, with full jitter in [0, delay].
func backoffWithJitter(cfg retryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialBackoff)
	for i := 0; i < attempt; i++ {
		delay *= cfg.Multiplier
	}
	d := time.Duration(delay)
	if d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	if d <= 0 {
		return cfg.InitialBackoff
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}

// retryAfter parses a Retry-After header (seconds or HTTP-date) and
// returns the wait duration, if the header is present and valid.
func retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil {
		return secs, true
	}
	if when, err := http.ParseTime(v); err == nil {
		if d := time.Until(when); d > 0 {
			return d, true
		}
	}
	return 0, false
}
