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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("echo:upper", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var s string
		if err := DecodeArg(args, 0, &s); err != nil {
			return nil, err
		}
		return map[string]string{"echo": s}, nil
	})

	args, err := EncodeArgs("hello")
	require.NoError(t, err)
	resp := r.Dispatch(context.Background(), Request{ID: "1", Channel: "echo:upper", Args: args})
	assert.Equal(t, "1", resp.ID)
	assert.Empty(t, resp.Error)
	assert.JSONEq(t, `{"echo":"hello"}`, string(resp.Result))
}

func TestRegistryUnknownChannel(t *testing.T) {
	r := NewRegistry(nil)
	resp := r.Dispatch(context.Background(), Request{ID: "7", Channel: "nope:nothing"})
	assert.Equal(t, "7", resp.ID)
	assert.Contains(t, resp.Error, "unknown channel")
}

func TestRegistryHandlerError(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("fail:always", func(ctx context.Context, args []json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})
	resp := r.Dispatch(context.Background(), Request{ID: "2", Channel: "fail:always"})
	assert.Equal(t, "boom", resp.Error)
	assert.Nil(t, resp.Result)
}

func TestRegistryChannels(t *testing.T) {
	r := NewRegistry(nil)
	noop := func(ctx context.Context, args []json.RawMessage) (any, error) { return nil, nil }
	r.Register("b:two", noop)
	r.Register("a:one", noop)
	assert.Equal(t, []string{"a:one", "b:two"}, r.Channels())
}

func TestDecodeArg(t *testing.T) {
	args, err := EncodeArgs("first", 42)
	require.NoError(t, err)

	var s string
	require.NoError(t, DecodeArg(args, 0, &s))
	assert.Equal(t, "first", s)

	var n int
	require.NoError(t, DecodeArg(args, 1, &n))
	assert.Equal(t, 42, n)

	err = DecodeArg(args, 2, &s)
	assert.ErrorContains(t, err, "missing argument 2")

	err = DecodeArg(args, 1, &s)
	assert.ErrorContains(t, err, "argument 1")
}

func TestEnvelopeShapes(t *testing.T) {
	ok := OK(map[string]int{"n": 3})
	assert.True(t, ok.Success)
	assert.JSONEq(t, `{"n":3}`, string(ok.Data))
	assert.Empty(t, ok.Error)

	fail := Fail("bad input")
	assert.False(t, fail.Success)
	assert.Equal(t, "bad input", fail.Error)

	// Unmarshalable payloads collapse to a failure envelope.
	bad := OK(func() {})
	assert.False(t, bad.Success)
	assert.NotEmpty(t, bad.Error)
}

func TestDirectTransport(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("math:double", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var n int
		if err := DecodeArg(args, 0, &n); err != nil {
			return nil, err
		}
		return n * 2, nil
	})

	transport := NewDirectTransport(r)
	assert.True(t, transport.Connected())

	env, err := transport.Invoke(context.Background(), "math:double", 21)
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "42", string(env.Data))

	env, err = transport.Invoke(context.Background(), "missing:channel")
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "unknown channel")

	assert.NoError(t, transport.Close())
}

func TestBrokerSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()

	var mu sync.Mutex
	var got []Event
	id := b.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	b.Publish(Event{Type: EventTimerStarted, EntityID: "e1"})
	b.Publish(Event{Type: EventTimerStopped, EntityID: "e1"})

	b.Unsubscribe(id)
	b.Publish(Event{Type: EventInvoiceGenerated, EntityID: "i1"})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, EventTimerStarted, got[0].Type)
	assert.Equal(t, EventTimerStopped, got[1].Type)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestBrokerConcurrentPublish(t *testing.T) {
	b := NewBroker()

	var count int
	var mu sync.Mutex
	b.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(Event{Type: EventTransportState, Timestamp: time.Now()})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}
