// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/aquascape/internal/api"
	"github.com/tomtom215/aquascape/internal/auth"
	"github.com/tomtom215/aquascape/internal/config"
	"github.com/tomtom215/aquascape/internal/events"
	"github.com/tomtom215/aquascape/internal/gateway"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/session"
	"github.com/tomtom215/aquascape/internal/supervisor"
	"github.com/tomtom215/aquascape/internal/supervisor/services"
	ws "github.com/tomtom215/aquascape/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("backend_url", cfg.Backend.URL).
		Str("auth_issuer", cfg.Auth.Issuer).
		Bool("breaker_enabled", cfg.Backend.Breaker.Enabled).
		Msg("Starting Aquascape gateway")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Shared client; sessions derive their own with their token source.
	backend := gateway.New(&cfg.Backend, nil)

	bus := events.NewBus(logging.NewWatermillAdapter())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	wsHub := ws.NewHub()

	opts, err := session.OptionsFromConfig(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid session configuration")
	}
	registry := session.NewRegistry(ctx, backend, bus, opts)
	defer registry.Close()

	userSync := auth.NewUserSync(cfg.Session.Capacity, cfg.Session.TTL)

	verifier := auth.NewVerifier(&cfg.Auth, nil)

	handler := api.NewHandler(cfg, backend, verifier, registry, userSync, wsHub, version)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, mw),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddSessionService(services.NewSessionJanitorService(registry, janitorInterval))

	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(events.NewForwarder(bus, wsHub))
	logging.Info().Msg("WebSocket hub and event forwarder added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// errCh receives exactly one value and is never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Int("sessions", registry.Len()).Msg("Gateway stopped gracefully")
}
