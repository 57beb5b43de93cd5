// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers holds the gin handlers of the host's HTTP surface.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ChronoLocal/services/host/bridge"
	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
)

// ipcRequest is the body of POST /api/ipc/:channel. Args are positional,
// matching the command's handler signature.
type ipcRequest struct {
	Args []json.RawMessage `json:"args"`
}

// HandleIPC invokes the named channel over the given transport and
// returns the result envelope. Transport failures map to HTTP status
// codes; command failures come back as 200 with {success:false}.
//
// Inputs:
//
//	transport - Direct on the host itself, Forwarding in a gateway.
//
// Outputs:
//
//	200 with the envelope, 503 when the transport is disconnected,
//	500 on any other transport failure, 400 on an unreadable body.
func HandleIPC(transport bridge.CommandTransport) gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := c.Param("channel")

		var req ipcRequest
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, bridge.Fail("invalid request body: "+err.Error()))
				return
			}
		}

		args := make([]any, len(req.Args))
		for i, raw := range req.Args {
			args[i] = raw
		}

		env, err := transport.Invoke(c.Request.Context(), channel, args...)
		if err != nil {
			if errors.Is(err, datatypes.ErrTransportUnavailable) {
				c.JSON(http.StatusServiceUnavailable, bridge.Fail(err.Error()))
			} else {
				c.JSON(http.StatusInternalServerError, bridge.Fail(err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, env)
	}
}
