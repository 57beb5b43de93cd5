// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package bridge

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// CommandTransport resolves commands. Call sites never know which
// implementation they hold; the choice is made once at process start.
//
// Thread Safety: implementations must be safe for concurrent Invoke.
type CommandTransport interface {
	// Invoke runs the named channel with positional args and returns the
	// result envelope. Transport-level failures (not command failures)
	// come back as errors: ErrTransportUnavailable, ErrTransportTimeout.
	Invoke(ctx context.Context, channel string, args ...any) (Envelope, error)

	// Connected reports whether the transport can currently carry a
	// command. Direct transports are always connected.
	Connected() bool

	// Close releases transport resources. Idempotent.
	Close() error
}

// DirectTransport resolves commands in-process against a Registry. No
// serialization boundary is crossed beyond the envelope itself, so the
// result shape stays identical to the forwarding path.
type DirectTransport struct {
	registry *Registry
}

var _ CommandTransport = (*DirectTransport)(nil)

// NewDirectTransport wraps a registry in the transport interface.
func NewDirectTransport(r *Registry) *DirectTransport {
	return &DirectTransport{registry: r}
}

// Invoke dispatches synchronously. It never returns a transport error.
func (t *DirectTransport) Invoke(ctx context.Context, channel string, args ...any) (Envelope, error) {
	raw, err := EncodeArgs(args...)
	if err != nil {
		return Fail("encode arguments: " + err.Error()), nil
	}
	resp := t.registry.Dispatch(ctx, Request{
		ID:      uuid.NewString(),
		Channel: channel,
		Args:    raw,
	})
	return envelopeFromResponse(resp), nil
}

// Connected always reports true.
func (t *DirectTransport) Connected() bool { return true }

// Close is a no-op.
func (t *DirectTransport) Close() error { return nil }

// envelopeFromResponse converts the wire reply into the public result
// shape.
func envelopeFromResponse(resp Response) Envelope {
	if resp.Error != "" {
		return Fail(resp.Error)
	}
	data := resp.Result
	if data == nil {
		data = json.RawMessage("null")
	}
	return Envelope{Success: true, Data: data}
}
