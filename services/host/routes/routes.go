// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ChronoLocal/services/host/bridge"
	"github.com/AleutianAI/ChronoLocal/services/host/handlers"
)

// SetupHostRoutes wires the full host surface: command IPC over the
// direct transport plus the websocket endpoint forwarding clients attach
// to.
func SetupHostRoutes(router *gin.Engine, registry *bridge.Registry,
	transport bridge.CommandTransport, logger *slog.Logger) {

	router.GET("/health", handlers.HealthCheck(transport))

	api := router.Group("/api")
	{
		api.POST("/ipc/:channel", handlers.HandleIPC(transport))
		api.GET("/ipc/ws", handlers.HandleCommandWebSocket(registry, logger))
	}
}

// SetupGatewayRoutes wires the reduced surface of a forwarding gateway:
// command IPC only, resolved over the remote host.
func SetupGatewayRoutes(router *gin.Engine, transport bridge.CommandTransport) {
	router.GET("/health", handlers.HealthCheck(transport))
	router.POST("/api/ipc/:channel", handlers.HandleIPC(transport))
}
