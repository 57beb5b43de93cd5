// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/ChronoLocal/pkg/logging"
	"github.com/AleutianAI/ChronoLocal/services/host/bridge"
	"github.com/AleutianAI/ChronoLocal/services/host/routes"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve POST /api/ipc/:channel locally, forwarding to the host",
	Long: `Gateway holds a persistent websocket to the host and re-exposes the
command channel over local HTTP. While the host is unreachable it answers
503 and keeps reconnecting in the background.`,
	Run: runGateway,
}

func runGateway(cmd *cobra.Command, args []string) {
	logger := logging.New(logging.Config{
		LogDir:  config.LogDir,
		Service: "gateway",
	})
	defer logger.Close()

	transport := bridge.NewForwardingTransport(bridge.ForwardingConfig{
		URL:    config.HostURL,
		Logger: logger.Slog(),
		OnStateChange: func(connected bool) {
			logger.Info("host connectivity changed", "connected", connected)
		},
	})
	defer transport.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.SetupGatewayRoutes(router, transport)

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", config.GatewayPort),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting gateway", "port", config.GatewayPort, "host", config.HostURL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Gateway error: %v", err)
	}
	logger.Info("gateway stopped")
}
