// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/websocket"
)

// registerTimeout bounds how long an upgraded connection waits for the hub.
const registerTimeout = 5 * time.Second

// WebSocket upgrades the connection and registers it with the hub under the
// caller's subject. Browsers cannot set headers on upgrades, so the token
// travels in ?access_token=.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, sess.Subject)
	select {
	case h.hub.Register <- client:
		client.Start()
		logging.Ctx(r.Context()).Debug().Uint64("client_id", client.ID()).Msg("WebSocket client connected")
	case <-time.After(registerTimeout):
		logging.Ctx(r.Context()).Error().Msg("WebSocket hub not accepting clients")
		_ = conn.Close()
	}
}
