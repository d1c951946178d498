// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package services adapts gateway components to suture.Service.

Each wrapper translates one lifecycle pattern into Serve(ctx) error:

  - HTTPServerService: ListenAndServe/Shutdown with a drain timeout
  - WebSocketHubService: delegates to Hub.RunWithContext
  - SessionJanitorService: a ticker loop calling CleanupExpired

The event forwarder already implements Serve and String and is added to
the tree directly.

Return values drive supervisor decisions:

	ctx.Err()   -> shutdown requested, normal termination
	error       -> crash, suture restarts the service with backoff
	nil         -> clean stop, not restarted

Every wrapper implements fmt.Stringer so suture's log lines name it.
*/
package services
