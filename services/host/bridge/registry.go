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
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Handler executes one command. args are the raw positional arguments;
// the returned value is marshalled into the success envelope. Errors map
// to {success:false, error:<message>} with the message surfaced verbatim.
type Handler func(ctx context.Context, args []json.RawMessage) (any, error)

// Registry routes channel names to handlers. It is the host-side half of
// the bridge: both transports ultimately dispatch into a Registry.
//
// Thread Safety: safe for concurrent use; registration normally happens
// once at startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds a channel name to a handler, replacing any previous
// binding.
func (r *Registry) Register(channel string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[channel] = h
}

// Channels returns the registered channel names, sorted.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for ch := range r.handlers {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Dispatch executes the request and returns its response envelope. An
// unknown channel or a handler error becomes a failure envelope; engine
// errors are never silently swallowed.
func (r *Registry) Dispatch(ctx context.Context, req Request) Response {
	r.mu.RLock()
	h, ok := r.handlers[req.Channel]
	r.mu.RUnlock()

	if !ok {
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown channel: %s", req.Channel)}
	}

	result, err := h(ctx, req.Args)
	if err != nil {
		r.logger.Warn("command failed", "channel", req.Channel, "error", err.Error())
		return Response{ID: req.ID, Error: err.Error()}
	}

	data, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("command result not serializable", "channel", req.Channel, "error", err.Error())
		return Response{ID: req.ID, Error: "encode response: " + err.Error()}
	}
	return Response{ID: req.ID, Result: data}
}

// DecodeArg unmarshals the positional argument at index into v, with a
// uniform error message for short argument arrays.
func DecodeArg(args []json.RawMessage, index int, v any) error {
	if index >= len(args) {
		return fmt.Errorf("missing argument %d", index)
	}
	if err := json.Unmarshal(args[index], v); err != nil {
		return fmt.Errorf("argument %d: %w", index, err)
	}
	return nil
}
