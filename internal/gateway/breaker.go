// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package gateway

import (
	"context"
	"errors"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/aquascape/internal/config"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
)

// newBreaker builds the circuit breaker around backend calls.
//
// DETERMINISM NOTE: gobreaker uses real time for its interval and timeout.
// Tests that need a tripped breaker use a short Timeout rather than a fake
// clock.
func newBreaker(cfg *config.BreakerConfig) *gobreaker.CircuitBreaker[*resty.Response] {
	metrics.CircuitBreakerState.WithLabelValues(BreakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(BreakerName).Set(0)

	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio

	return gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= ratio
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: isBreakerSuccess,
	})
}

// isBreakerSuccess decides whether a call outcome counts against the
// backend. Client errors and caller cancellation are not backend faults.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if IsClientError(err) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// execute wraps a backend call with circuit breaker protection.
func (c *Client) execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	if c.cb == nil {
		return fn()
	}

	resp, err := c.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, err
		}
		if isBreakerSuccess(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "success").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "failure").Inc()
			counts := c.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(BreakerName).Set(float64(counts.ConsecutiveFailures))
		}
		return resp, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(BreakerName).Set(0)
	return resp, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
