// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package api is the dashboard-facing HTTP surface of the gateway.

Routes are registered on a chi router by NewRouter:

	GET    /api/v1/health                  liveness, session count, breaker state
	POST   /api/v1/session/sync            backend user sync, once per sign-in
	GET    /api/v1/aquariums?q=            refresh, filter and stats
	POST   /api/v1/aquariums               create from the add form
	PUT    /api/v1/aquariums/{id}          edit form update plus schedule save
	DELETE /api/v1/aquariums/{id}?confirm=true
	PUT    /api/v1/aquariums/{id}/schedule aquarium update plus schedule save
	GET    /api/v1/aquariums/{id}/sensors  chart series, metadata.synthetic when faked
	POST   /api/v1/aquariums/{id}/feed     manual feed
	POST   /api/v1/aquariums/{id}/view     start alert polling for the aquarium
	DELETE /api/v1/view                    stop alert polling
	GET    /api/v1/alerts                  active alerts of the viewed aquarium
	POST   /api/v1/alerts/{id}/resolve     optimistic resolve
	GET    /api/v1/ws                      push channel (token in access_token)
	GET    /metrics                        Prometheus
	GET    /*                              SPA assets with index.html fallback

Every /api/v1 route except health requires a bearer token. Handlers look up
the caller's session in the session registry and work through its store,
schedule reconciler, sensor service and alert viewer.

Responses use the models.APIResponse envelope. Errors from lower layers are
mapped by errorResponse:

	*validation.RequestValidationError  400 VALIDATION_ERROR
	*gateway.AuthError                  401 AUTHENTICATION_ERROR
	*schedule.PartialFailureError       502 PARTIAL_FAILURE (aquarium in details)
	*store.FetchError                   503 BACKEND_UNAVAILABLE
	*gateway.GatewayError               by backend status, see errorResponse
*/
package api
