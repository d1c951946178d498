// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package main is the entry point for the Aquascape dashboard gateway.

The gateway sits between the aquarium dashboard and the hosted aquarium
REST backend. It forwards the user's bearer token on every backend call,
keeps a per-user session (aquarium list, schedule ids, alert poller) and
pushes alert updates and schedule prompts over a websocket.

# Application Architecture

	aquascape (root supervisor)
	├── session-layer
	│   └── session-janitor    closes idle sessions and their pollers
	├── messaging-layer
	│   ├── websocket-hub      per-user push connections
	│   └── event-forwarder    watermill bus to websocket hub
	└── api-layer
	    └── http-server        chi router, /api/v1 and the SPA

# Configuration

Configuration is loaded via Koanf v2 (highest priority wins):
  - Environment variables, after an optional .env file
  - Config file (config.yaml, or the file named by CONFIG_PATH)
  - Built-in defaults

The settings most deployments touch:
  - BACKEND_URL: aquarium REST backend, e.g. https://aquascape.onrender.com
  - AUTH_ISSUER, AUTH_AUDIENCE: identity provider whose JWKS signs access tokens
  - HTTP_PORT: listen port (default 8080)
  - STATIC_DIR: built dashboard assets to serve at /
  - CORS_ORIGINS: comma-separated dashboard origins
  - LOG_LEVEL, LOG_FORMAT: zerolog level and json/console output

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, the hub closes client connections, and every session's
alert poller is stopped before the process exits.
*/
package main
