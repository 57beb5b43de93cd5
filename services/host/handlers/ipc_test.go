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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ChronoLocal/services/host/bridge"
	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
)

// stubTransport scripts transport behavior for handler tests.
type stubTransport struct {
	env       bridge.Envelope
	err       error
	connected bool
	lastCh    string
}

func (s *stubTransport) Invoke(ctx context.Context, channel string, args ...any) (bridge.Envelope, error) {
	s.lastCh = channel
	return s.env, s.err
}
func (s *stubTransport) Connected() bool { return s.connected }
func (s *stubTransport) Close() error    { return nil }

var _ bridge.CommandTransport = (*stubTransport)(nil)

func newIPCRouter(transport bridge.CommandTransport) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/ipc/:channel", HandleIPC(transport))
	router.GET("/health", HealthCheck(transport))
	return router
}

func postIPC(t *testing.T, router *gin.Engine, channel, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ipc/"+channel, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHandleIPCSuccess(t *testing.T) {
	stub := &stubTransport{env: bridge.OK(map[string]string{"id": "e1"}), connected: true}
	router := newIPCRouter(stub)

	w := postIPC(t, router, "timeEntries:getActive", `{"args":[]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "timeEntries:getActive", stub.lastCh)

	var env bridge.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"id":"e1"}`, string(env.Data))
}

func TestHandleIPCCommandFailureIs200(t *testing.T) {
	stub := &stubTransport{env: bridge.Fail("validation: bad rounding unit"), connected: true}
	router := newIPCRouter(stub)

	w := postIPC(t, router, "timeEntries:stop", `{"args":[{"entry_id":"x","rounding_unit":7}]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var env bridge.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "rounding unit")
}

func TestHandleIPCDisconnectedIs503(t *testing.T) {
	stub := &stubTransport{
		err: fmt.Errorf("%w: not connected to host", datatypes.ErrTransportUnavailable),
	}
	router := newIPCRouter(stub)

	w := postIPC(t, router, "timeEntries:start", `{"args":[{}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var env bridge.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
}

func TestHandleIPCTimeoutIs500(t *testing.T) {
	// Only a missing connection gets a distinct status; every other
	// transport failure, timeouts included, is a plain 500.
	stub := &stubTransport{
		err: fmt.Errorf("%w: no response within 5s", datatypes.ErrTransportTimeout),
	}
	router := newIPCRouter(stub)

	w := postIPC(t, router, "clients:list", `{"args":[]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var env bridge.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
}

func TestHandleIPCBadBody(t *testing.T) {
	stub := &stubTransport{env: bridge.OK(nil), connected: true}
	router := newIPCRouter(stub)

	w := postIPC(t, router, "clients:list", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleIPCEmptyBody(t *testing.T) {
	stub := &stubTransport{env: bridge.OK([]string{}), connected: true}
	router := newIPCRouter(stub)

	w := postIPC(t, router, "clients:list", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheckReportsConnectivity(t *testing.T) {
	stub := &stubTransport{connected: true}
	router := newIPCRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","connected":true}`, w.Body.String())

	stub.connected = false
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","connected":false}`, w.Body.String())
}
