// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Auth failure reasons.
const (
	AuthReasonMissing = "missing"
	AuthReasonExpired = "expired"
	AuthReasonInvalid = "invalid"
)

// AuthError means no usable bearer token was available. The request was
// not sent.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s token: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s token", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// GatewayError is a failed backend call. Status is zero when no HTTP
// response was received (network error, timeout, open circuit).
type GatewayError struct {
	Method  string
	Path    string
	Status  int
	Message string // backend-supplied message, if any
	Err     error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("backend %s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("backend %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("backend %s %s returned %d", e.Method, e.Path, e.Status)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown in a dashboard notification: the backend
// message when present, else a generic description of the failure kind.
func (e *GatewayError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch {
	case e.Status == 0:
		return "Backend is unavailable, please try again shortly"
	case e.Status == http.StatusNotFound:
		return "Not found"
	case e.Status >= 500:
		return "Backend error, please try again"
	default:
		return "Request failed"
	}
}

// IsStatus reports whether err is a GatewayError with the given status.
func IsStatus(err error, status int) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Status == status
}

// IsClientError reports whether err is a 4xx GatewayError.
func IsClientError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Status >= 400 && ge.Status < 500
}
