// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package websocket pushes alert updates and schedule prompts to dashboard
tabs over gorilla/websocket.

Key Components:

  - Hub: tracks connected clients per user and routes messages to them
  - Client: one connection with a read goroutine and a write goroutine
  - Message: typed envelope {type, data}

Every client belongs to a subject (the signed-in user). Messages are
addressed to a subject and reach every tab that user has open; other users
never see them.

	┌──────────┐
	│   Hub    │ ← SendTo(subject, msg)
	└────┬─────┘
	     │
	┌────┴──────┬───────────┐
	│ alice/tab1│ alice/tab2│ bob/tab1
	└───────────┴───────────┘

Message Types:

  - alerts_updated: active alerts of the viewed aquarium changed
  - schedule_prompt: an aquarium was created and has no schedule yet
  - ping/pong: application-level keepalive

Client Protocol:

	const ws = new WebSocket(`wss://host/api/v1/ws?access_token=${token}`);
	ws.onmessage = (e) => {
	    const msg = JSON.parse(e.data);
	    if (msg.type === 'alerts_updated') renderAlerts(msg.data.alerts);
	};

The hub runs under the supervisor via RunWithContext. Cancelling the
context closes every client.
*/
package websocket
