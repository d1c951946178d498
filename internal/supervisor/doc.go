// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package supervisor runs the gateway's long-lived components under a
suture v4 supervisor tree.

	aquascape (root)
	├── session-layer
	│   └── session-janitor
	├── messaging-layer
	│   ├── websocket-hub
	│   └── event-forwarder
	└── api-layer
	    └── http-server

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog into the zerolog-backed slog handler from internal/logging.

Services return ctx.Err() on a requested shutdown and a wrapped error on a
crash, which suture restarts with backoff. Per-user alert pollers are not
supervised here; they belong to their session and stop when it is evicted.

Example:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddSessionService(services.NewSessionJanitorService(registry, time.Minute))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(forwarder)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
