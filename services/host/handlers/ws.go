// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/ChronoLocal/services/host/bridge"
)

var upgrader = websocket.Upgrader{
	// Forwarding clients connect from other local processes; origin
	// checking adds nothing on a loopback-bound listener.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// HandleCommandWebSocket serves the host side of the forwarding
// transport: it reads Request frames, dispatches each into the registry
// on its own goroutine, and writes Response frames back. Responses may
// interleave out of request order; the correlation id sorts them out on
// the client.
func HandleCommandWebSocket(registry *bridge.Registry, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err.Error())
			return
		}
		defer ws.Close()
		logger.Info("bridge client connected", "remote", ws.RemoteAddr().String())

		// Gorilla connections allow one concurrent writer; dispatches run
		// in parallel, so writes serialize through this mutex.
		var writeMu sync.Mutex
		var wg sync.WaitGroup
		ctx := c.Request.Context()

		for {
			var req bridge.Request
			if err := ws.ReadJSON(&req); err != nil {
				logger.Info("bridge client disconnected", "error", err.Error())
				break
			}

			wg.Add(1)
			go func(req bridge.Request) {
				defer wg.Done()
				resp := registry.Dispatch(ctx, req)

				writeMu.Lock()
				err := ws.WriteJSON(resp)
				writeMu.Unlock()
				if err != nil {
					logger.Warn("bridge response write failed", "id", req.ID, "error", err.Error())
				}
			}(req)
		}
		wg.Wait()
	}
}
