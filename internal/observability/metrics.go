// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth outcomes recorded by the strategy middleware.
const (
	OutcomeExempt        = "exempt"
	OutcomeAuthenticated = "authenticated"
	OutcomeNoCredential  = "no_credential"
	OutcomeForbidden     = "forbidden"
	OutcomeError         = "error"
)

// Metrics holds the authgate collectors. A nil *Metrics records nothing, so
// callers need no guard when metrics are disabled.
type Metrics struct {
	AuthAttempts      *prometheus.CounterVec
	SessionsCreated   *prometheus.CounterVec
	SessionsDestroyed *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_auth_attempts_total",
				Help: "Authentication decisions by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		SessionsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_sessions_created_total",
				Help: "Sessions issued by source",
			},
			[]string{"source"},
		),
		SessionsDestroyed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_sessions_destroyed_total",
				Help: "Sessions revoked by source",
			},
			[]string{"source"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_http_requests_total",
				Help: "HTTP requests by route pattern, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authgate_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	reg.MustRegister(m.AuthAttempts, m.SessionsCreated, m.SessionsDestroyed, m.HTTPRequests, m.HTTPDuration)
	return m
}

// RecordAuth counts one authentication decision.
func (m *Metrics) RecordAuth(strategy, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordSessionCreated counts an issued session.
func (m *Metrics) RecordSessionCreated(source string) {
	if m == nil {
		return
	}
	m.SessionsCreated.WithLabelValues(source).Inc()
}

// RecordSessionDestroyed counts a revoked session.
func (m *Metrics) RecordSessionDestroyed(source string) {
	if m == nil {
		return
	}
	m.SessionsDestroyed.WithLabelValues(source).Inc()
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
