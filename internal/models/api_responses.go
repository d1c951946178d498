// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package models

import (
	"time"
)

// APIResponse represents the standardized response wrapper used by all BFF
// endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"aquariums": [...], "stats": {"total": 3, "filtered": 1}},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "name must not be blank",
//	    "details": {"field": "name"}
//	  },
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Backend round-trip time in milliseconds
//   - Synthetic: The sensor series is placeholder data, not telemetry
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Synthetic   bool      `json:"synthetic,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input, nothing was sent to the backend
//   - AUTHENTICATION_ERROR: Missing or expired bearer token
//   - BACKEND_ERROR: The backend rejected or failed the call
//   - BACKEND_UNAVAILABLE: Backend unreachable or circuit open
//   - PARTIAL_FAILURE: Aquarium saved but the schedule write failed
//   - NOT_FOUND: Resource doesn't exist
//   - NO_ACTIVE_VIEW: No aquarium is currently viewed
//   - INTERNAL_ERROR: Unexpected server fault
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is returned by the liveness endpoint.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Breaker  string `json:"breaker"`
}

// SessionInfo is returned by the user sync endpoint.
type SessionInfo struct {
	Subject string `json:"subject"`
	Synced  bool   `json:"synced"`
}
