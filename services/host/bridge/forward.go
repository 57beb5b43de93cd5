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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
)

// ====================================================================
// Forwarding transport configuration
// ====================================================================

// ForwardingConfig configures a ForwardingTransport.
type ForwardingConfig struct {
	// URL is the websocket endpoint of the host, e.g.
	// ws://127.0.0.1:8311/api/ipc/ws.
	URL string

	// RequestTimeout bounds the wait for one response. Zero means
	// DefaultRequestTimeout.
	RequestTimeout time.Duration

	// ImmediateRetries is the number of back-to-back reconnect attempts
	// before backoff kicks in. Zero means DefaultImmediateRetries.
	ImmediateRetries int

	// RetryBackoff is the fixed delay between attempts after the
	// immediate ones are spent. Zero means DefaultRetryBackoff.
	RetryBackoff time.Duration

	// Logger may be nil.
	Logger *slog.Logger

	// OnStateChange, when non-nil, is called with every connectivity
	// transition. Called from the transport's goroutines; must not block.
	OnStateChange func(connected bool)
}

// Defaults for ForwardingConfig zero values.
const (
	DefaultRequestTimeout   = 5 * time.Second
	DefaultImmediateRetries = 3
	DefaultRetryBackoff     = 2 * time.Second
)

func applyForwardingDefaults(cfg *ForwardingConfig) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ImmediateRetries <= 0 {
		cfg.ImmediateRetries = DefaultImmediateRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}

// ====================================================================
// Forwarding transport
// ====================================================================

// ForwardingTransport carries commands across a persistent websocket to
// a remote registry. Each request gets a fresh correlation id; a reader
// goroutine settles pending requests as responses arrive, in any order.
// Requests that outlive RequestTimeout fail with ErrTransportTimeout and
// their late responses are dropped. While disconnected, Invoke fails
// fast with ErrTransportUnavailable instead of queueing.
//
// Thread Safety: safe for concurrent use.
type ForwardingTransport struct {
	cfg ForwardingConfig

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan Response
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

var _ CommandTransport = (*ForwardingTransport)(nil)

// NewForwardingTransport dials the host and starts the reconnect loop.
// The initial dial failure is not fatal: the loop keeps retrying in the
// background and Invoke fails fast until a connection lands.
func NewForwardingTransport(cfg ForwardingConfig) *ForwardingTransport {
	applyForwardingDefaults(&cfg)
	t := &ForwardingTransport{
		cfg:     cfg,
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
	t.wg.Add(1)
	go t.connectLoop()
	return t
}

// Invoke sends one command and waits for its correlated response.
func (t *ForwardingTransport) Invoke(ctx context.Context, channel string, args ...any) (Envelope, error) {
	raw, err := EncodeArgs(args...)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: encode arguments: %s", datatypes.ErrValidation, err)
	}

	req := Request{ID: uuid.NewString(), Channel: channel, Args: raw}
	ch := make(chan Response, 1)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Envelope{}, fmt.Errorf("%w: transport closed", datatypes.ErrTransportUnavailable)
	}
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return Envelope{}, fmt.Errorf("%w: not connected to host", datatypes.ErrTransportUnavailable)
	}
	t.pending[req.ID] = ch
	err = conn.WriteJSON(req)
	t.mu.Unlock()

	if err != nil {
		t.settleDrop(req.ID)
		return Envelope{}, fmt.Errorf("%w: write: %s", datatypes.ErrTransportUnavailable, err)
	}

	timer := time.NewTimer(t.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			// Channel closed: the connection died under this request.
			return Envelope{}, fmt.Errorf("%w: connection lost awaiting %s",
				datatypes.ErrTransportUnavailable, channel)
		}
		return envelopeFromResponse(resp), nil
	case <-timer.C:
		t.settleDrop(req.ID)
		return Envelope{}, fmt.Errorf("%w: no response for %s within %s",
			datatypes.ErrTransportTimeout, channel, t.cfg.RequestTimeout)
	case <-ctx.Done():
		t.settleDrop(req.ID)
		return Envelope{}, ctx.Err()
	}
}

// WaitConnected blocks until the transport connects or ctx expires.
// Useful for short-lived callers that dial and immediately invoke.
func (t *ForwardingTransport) WaitConnected(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if t.Connected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", datatypes.ErrTransportUnavailable, ctx.Err())
		case <-t.done:
			return fmt.Errorf("%w: transport closed", datatypes.ErrTransportUnavailable)
		case <-ticker.C:
		}
	}
}

// Connected reports whether a websocket is currently established.
func (t *ForwardingTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Close stops the reconnect loop, fails all pending requests, and tears
// down the connection.
func (t *ForwardingTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	conn := t.conn
	t.conn = nil
	for id, ch := range t.pending {
		delete(t.pending, id)
		close(ch)
	}
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	t.wg.Wait()
	return nil
}

// ====================================================================
// Connection management
// ====================================================================

// connectLoop dials, serves the connection's read side until it drops,
// then reconnects: ImmediateRetries back-to-back attempts, then a fixed
// RetryBackoff between further ones, until Close.
func (t *ForwardingTransport) connectLoop() {
	defer t.wg.Done()

	attempt := 0
	for {
		select {
		case <-t.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(t.cfg.URL, nil)
		if err != nil {
			attempt++
			t.cfg.Logger.Warn("host connection failed", "url", t.cfg.URL,
				"attempt", attempt, "error", err.Error())
			if attempt >= t.cfg.ImmediateRetries {
				select {
				case <-t.done:
					return
				case <-time.After(t.cfg.RetryBackoff):
				}
			}
			continue
		}

		attempt = 0
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		t.conn = conn
		t.mu.Unlock()
		t.cfg.Logger.Info("connected to host", "url", t.cfg.URL)
		t.notifyState(true)

		t.readPump(conn)

		t.mu.Lock()
		if t.conn == conn {
			t.conn = nil
		}
		// Requests in flight on the dead connection can never settle.
		for id, ch := range t.pending {
			delete(t.pending, id)
			close(ch)
		}
		closed := t.closed
		t.mu.Unlock()
		_ = conn.Close()
		if closed {
			return
		}
		t.cfg.Logger.Warn("host connection lost", "url", t.cfg.URL)
		t.notifyState(false)
	}
}

// readPump settles pending requests from incoming responses until the
// connection errors out. Responses with no pending waiter (late after a
// timeout, or duplicates) are dropped.
func (t *ForwardingTransport) readPump(conn *websocket.Conn) {
	for {
		var resp Response
		if err := conn.ReadJSON(&resp); err != nil {
			return
		}

		t.mu.Lock()
		ch, ok := t.pending[resp.ID]
		if ok {
			delete(t.pending, resp.ID)
		}
		t.mu.Unlock()

		if !ok {
			t.cfg.Logger.Debug("dropping unmatched response", "id", resp.ID)
			continue
		}
		ch <- resp
	}
}

// settleDrop removes a pending request so a late response cannot settle
// it.
func (t *ForwardingTransport) settleDrop(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *ForwardingTransport) notifyState(connected bool) {
	if t.cfg.OnStateChange != nil {
		t.cfg.OnStateChange(connected)
	}
}
