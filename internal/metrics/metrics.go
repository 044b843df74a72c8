// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login outcomes: success, invalid_credentials,
	// locked, forbidden, inactive, csrf, invalid_input, error.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// TokenVerifications counts route guard decisions by reason ("valid" on success).
	TokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_verifications_total",
			Help: "Token verifications performed by the route guard",
		},
		[]string{"result"},
	)

	// SignedRequests counts signed service calls by result.
	SignedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_signed_requests_total",
			Help: "Signed service-to-service requests by verification result",
		},
		[]string{"result"},
	)

	// Lockouts counts identifiers that crossed the failure threshold.
	Lockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Identifiers locked out after repeated failures",
		},
	)
)
