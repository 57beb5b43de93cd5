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
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes broker events.
type EventType string

const (
	// EventTimerStarted fires when an entry becomes the active timer.
	EventTimerStarted EventType = "timer.started"

	// EventTimerStopped fires when the active timer ends.
	EventTimerStopped EventType = "timer.stopped"

	// EventInvoiceGenerated fires when a new invoice is written.
	EventInvoiceGenerated EventType = "invoice.generated"

	// EventTransportState fires on connectivity transitions of a
	// forwarding transport.
	EventTransportState EventType = "transport.state"
)

// Event is one broker notification.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// EntityID names the entry or invoice the event concerns, when any.
	EntityID string `json:"entity_id,omitempty"`

	// Connected carries the new state for EventTransportState.
	Connected bool `json:"connected,omitempty"`
}

// EventHandler processes one event. Handlers run on the publisher's
// goroutine and must not block.
type EventHandler func(Event)

// Broker fans events out to subscribers. Subscriptions are explicit:
// every Subscribe returns an id the subscriber must pass to Unsubscribe
// when done, or the handler leaks for the broker's lifetime.
//
// Thread Safety: Broker is safe for concurrent use.
type Broker struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{handlers: make(map[string]EventHandler)}
}

// Subscribe registers a handler for all events and returns its
// subscription id.
func (b *Broker) Subscribe(h EventHandler) string {
	id := uuid.NewString()
	b.mu.Lock()
	b.handlers[id] = h
	b.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	delete(b.handlers, id)
	b.mu.Unlock()
}

// Publish delivers the event to every current subscriber. The timestamp
// is filled in when zero.
func (b *Broker) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
