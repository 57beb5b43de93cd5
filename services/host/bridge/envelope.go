// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package bridge implements the typed command channel between the UI
// process and the host.
//
// Commands are named resource:verb (e.g. "timeEntries:start") and travel
// in a uniform envelope. Two interchangeable transports implement the
// same contract: Direct resolves in-process, Forwarding crosses a
// persistent websocket with request correlation and bounded-retry
// reconnection. Call sites depend only on the CommandTransport interface,
// chosen once at process start.
package bridge

import (
	"encoding/json"
)

// Request is the wire envelope for one command. The field shapes are a
// compatibility contract and must not change.
type Request struct {
	// ID correlates the response on the forwarding transport. Unique per
	// request.
	ID string `json:"id"`

	// Channel is the command name, "resource:verb".
	Channel string `json:"channel"`

	// Args is the positional argument array. Elements stay raw until the
	// command handler decodes them.
	Args []json.RawMessage `json:"args"`
}

// Response is the wire envelope for one reply. Exactly one of Result and
// Error is meaningful: Error non-empty means failure.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Envelope is the public result shape surfaced to callers of the bridge:
// {success:true, data} or {success:false, error}.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// OK wraps a payload into a success envelope. Marshal failures collapse
// into an error envelope rather than panicking mid-reply.
func OK(v any) Envelope {
	data, err := json.Marshal(v)
	if err != nil {
		return Fail("encode response: " + err.Error())
	}
	return Envelope{Success: true, Data: data}
}

// Fail builds a failure envelope carrying the message verbatim.
func Fail(message string) Envelope {
	return Envelope{Success: false, Error: message}
}

// EncodeArgs marshals positional arguments for a Request.
func EncodeArgs(args ...any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}
