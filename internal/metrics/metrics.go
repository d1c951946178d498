// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package metrics holds the Prometheus collectors for the gateway. All
// collectors register with the default registry through promauto and are
// exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	APIPanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_panics_recovered_total",
			Help: "Total number of handler panics rendered as a fallback panel",
		},
	)

	// Backend Gateway Metrics
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of calls to the aquarium backend",
		},
		[]string{"method", "route", "status_code"}, // status_code "0" for transport errors
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Backend call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"method", "route"},
	)

	BackendAuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_auth_failures_total",
			Help: "Calls refused before sending because no usable token was available",
		},
		[]string{"reason"}, // "missing", "expired"
	)

	TokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_verifications_total",
			Help: "Inbound bearer token checks against the identity provider keys",
		},
		[]string{"result"}, // "valid", "missing", "expired", "invalid"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Entity Store Metrics
	StoreRefreshAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_refresh_attempts_total",
			Help: "Aquarium list fetch attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	StoreRefreshExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_refresh_exhausted_total",
			Help: "Refreshes that failed after all attempts and emptied the list",
		},
	)

	// Sensor Metrics
	SensorSeriesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_series_generated_total",
			Help: "Sensor series produced, by source",
		},
		[]string{"source"}, // "reduced", "synthetic"
	)

	SensorRecordsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_records_discarded_total",
			Help: "Raw sensor records dropped for an unparsable timestamp",
		},
	)

	// Schedule Metrics
	ScheduleWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_writes_total",
			Help: "Schedule reconciler decisions",
		},
		[]string{"action", "result"}, // action: "create", "update", "skip"
	)

	// Alert Metrics
	AlertPollersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alert_pollers_active",
			Help: "Current number of running alert pollers",
		},
	)

	AlertPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_polls_total",
			Help: "Alert poll cycles",
		},
		[]string{"result"},
	)

	AlertResolves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_resolves_total",
			Help: "Alert resolve notifications sent to the backend",
		},
		[]string{"result"},
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Polled alerts hidden because they were resolved recently",
		},
	)

	// Session Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Current number of dashboard sessions",
		},
	)

	SessionEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_evictions_total",
			Help: "Sessions evicted by TTL or capacity",
		},
	)

	UserSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_syncs_total",
			Help: "Identity provider user sync calls",
		},
		[]string{"result"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Messages published on the in-process event bus",
		},
		[]string{"topic"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBackendRequest records one backend call. status is 0 when no
// response was received.
func RecordBackendRequest(method, route string, status int, duration time.Duration) {
	BackendRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	BackendRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTokenVerification records the outcome of an inbound token check.
func RecordTokenVerification(result string) {
	TokenVerifications.WithLabelValues(result).Inc()
}

// RecordRefreshAttempt records a single aquarium list fetch attempt.
func RecordRefreshAttempt(err error) {
	StoreRefreshAttempts.WithLabelValues(resultLabel(err)).Inc()
}

// RecordSensorSeries records whether a series came from real data.
func RecordSensorSeries(synthetic bool, discarded int) {
	source := "reduced"
	if synthetic {
		source = "synthetic"
	}
	SensorSeriesGenerated.WithLabelValues(source).Inc()
	if discarded > 0 {
		SensorRecordsDiscarded.Add(float64(discarded))
	}
}

// RecordScheduleWrite records a reconciler decision.
func RecordScheduleWrite(action string, err error) {
	ScheduleWrites.WithLabelValues(action, resultLabel(err)).Inc()
}

// RecordAlertPoll records one poll cycle.
func RecordAlertPoll(err error) {
	AlertPolls.WithLabelValues(resultLabel(err)).Inc()
}

// RecordAlertResolve records the backend outcome of a resolve.
func RecordAlertResolve(err error) {
	AlertResolves.WithLabelValues(resultLabel(err)).Inc()
}

// RecordUserSync records a user sync call.
func RecordUserSync(err error) {
	UserSyncs.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
