// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aquascape/internal/gateway"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/schedule"
	"github.com/tomtom215/aquascape/internal/store"
	"github.com/tomtom215/aquascape/internal/validation"
)

// maxBodyBytes caps request bodies. Dashboard forms are tiny.
const maxBodyBytes = 1 << 20

// Error codes returned in the envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAuthentication     = "AUTHENTICATION_ERROR"
	CodeBackend            = "BACKEND_ERROR"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodePartialFailure     = "PARTIAL_FAILURE"
	CodeNotFound           = "NOT_FOUND"
	CodeNoActiveView       = "NO_ACTIVE_VIEW"
	CodeInternal           = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Every response is per-user.
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends a success envelope. start is when the handler began;
// its elapsed time is reported as query_time_ms.
func respondData(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondErr maps err onto the error envelope and logs it.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := errorResponse(err)
	logRequestError(r, status, apiErr.Code, err)
	respondError(w, status, apiErr.Code, apiErr.Message, apiErr.Details)
}

func logRequestError(r *http.Request, status int, code string, err error) {
	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("code", code).Str("path", r.URL.Path).Msg("API Error")
}

// errorResponse translates the error taxonomy into an HTTP status and the
// envelope error. The most specific type is matched first: a partial
// failure and a fetch error both wrap a GatewayError.
func errorResponse(err error) (int, *models.APIError) {
	var (
		verr     *validation.RequestValidationError
		authErr  *gateway.AuthError
		partial  *schedule.PartialFailureError
		fetchErr *store.FetchError
		gwErr    *gateway.GatewayError
	)

	switch {
	case errors.As(err, &verr):
		v := verr.ToAPIError()
		return http.StatusBadRequest, &models.APIError{Code: v.Code, Message: v.Message, Details: v.Details}

	case errors.As(err, &authErr):
		return http.StatusUnauthorized, &models.APIError{
			Code:    CodeAuthentication,
			Message: "Your session has expired, please sign in again",
			Details: map[string]interface{}{"reason": authErr.Reason},
		}

	case errors.As(err, &partial):
		message := "Aquarium saved, but the feeding schedule could not be saved"
		if errors.As(partial.Err, &gwErr) {
			message += ": " + gwErr.UserMessage()
		}
		return http.StatusBadGateway, &models.APIError{
			Code:    CodePartialFailure,
			Message: message,
			Details: map[string]interface{}{"aquarium": partial.Aquarium},
		}

	case errors.As(err, &fetchErr):
		return http.StatusServiceUnavailable, &models.APIError{
			Code:    CodeBackendUnavailable,
			Message: "Could not load aquariums, please try again shortly",
			Details: map[string]interface{}{"attempts": fetchErr.Attempts},
		}

	case errors.As(err, &gwErr):
		return gatewayErrorResponse(gwErr)

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, &models.APIError{
			Code:    CodeBackendUnavailable,
			Message: "Backend is unavailable, please try again shortly",
		}

	default:
		return http.StatusInternalServerError, &models.APIError{
			Code:    CodeInternal,
			Message: "Internal server error",
		}
	}
}

func gatewayErrorResponse(gwErr *gateway.GatewayError) (int, *models.APIError) {
	apiErr := &models.APIError{
		Code:    CodeBackend,
		Message: gwErr.UserMessage(),
		Details: map[string]interface{}{"backend_status": gwErr.Status},
	}

	switch {
	case gwErr.Status == 0:
		apiErr.Code = CodeBackendUnavailable
		apiErr.Details = nil
		return http.StatusServiceUnavailable, apiErr
	case gwErr.Status == http.StatusNotFound:
		apiErr.Code = CodeNotFound
		return http.StatusNotFound, apiErr
	case gwErr.Status == http.StatusUnauthorized || gwErr.Status == http.StatusForbidden:
		apiErr.Code = CodeAuthentication
		return gwErr.Status, apiErr
	case gwErr.Status >= 400 && gwErr.Status < 500:
		return gwErr.Status, apiErr
	default:
		return http.StatusBadGateway, apiErr
	}
}

// decodeJSON reads a JSON request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	default:
		return validation.NewFieldError("body", "json", "Request body must be valid JSON", nil)
	}
}
