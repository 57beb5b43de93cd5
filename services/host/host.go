// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package host assembles the ChronoLocal host service: the Badger-backed
// entity store, the timer and invoice engines, the command registry, and
// the HTTP/websocket surface they are reachable through.
//
// # Usage
//
//	cfg := host.Config{Port: 8311, DataDir: "~/.chrono/data"}
//	svc, err := host.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run(context.Background()))
package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/ChronoLocal/pkg/logging"
	"github.com/AleutianAI/ChronoLocal/services/host/bridge"
	"github.com/AleutianAI/ChronoLocal/services/host/invoice"
	"github.com/AleutianAI/ChronoLocal/services/host/routes"
	storagebadger "github.com/AleutianAI/ChronoLocal/services/host/storage/badger"
	"github.com/AleutianAI/ChronoLocal/services/host/store"
	"github.com/AleutianAI/ChronoLocal/services/host/timer"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service is the host lifecycle contract.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run blocks and is
// called at most once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until the context is
	// cancelled, a termination signal arrives, or the server fails.
	Run(ctx context.Context) error

	// Router returns the gin engine for integration tests. Callers must
	// not modify it.
	Router() *gin.Engine

	// Transport returns the in-process command transport, for embedding
	// callers that bypass HTTP.
	Transport() bridge.CommandTransport

	// Close releases the store and log resources. Run calls it on exit;
	// callers that never Run must call it themselves.
	Close() error
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds host configuration. Zero values use defaults.
type Config struct {
	// Port is the HTTP listen port. Default: 8311.
	Port int

	// DataDir is the Badger database directory. Default:
	// ~/.chrono/data. InMemory ignores it.
	DataDir string

	// InMemory runs the store without disk persistence. Test use only.
	InMemory bool

	// GinMode sets the gin framework mode: debug, release, test.
	// Default: release.
	GinMode string

	// Logging configures the structured logger. Zero value logs text to
	// stderr only.
	Logging logging.Config

	// ShutdownGrace bounds graceful HTTP shutdown. Default: 5s.
	ShutdownGrace time.Duration
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8311
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "~/.chrono/data"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = gin.ReleaseMode
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}
	if cfg.Logging.Service == "" {
		cfg.Logging.Service = "chronohost"
	}
	return cfg
}

// =============================================================================
// Implementation
// =============================================================================

type service struct {
	config    Config
	logger    *logging.Logger
	db        *storagebadger.DB
	store     *store.Store
	registry  *bridge.Registry
	transport bridge.CommandTransport
	broker    *bridge.Broker
	router    *gin.Engine
}

var _ Service = (*service)(nil)

// New initializes the host: opens the store, builds the engines and
// command registry, and wires the HTTP surface over a direct transport.
func New(cfg Config) (Service, error) {
	cfg = applyConfigDefaults(cfg)

	logger := logging.New(cfg.Logging)

	s := &service{config: cfg, logger: logger}

	if err := s.initStore(); err != nil {
		_ = logger.Close()
		return nil, err
	}
	s.initEngines()
	s.initRouter()

	return s, nil
}

// Run serves until ctx cancels or SIGINT/SIGTERM arrives, then drains
// in-flight requests within ShutdownGrace.
func (s *service) Run(ctx context.Context) error {
	defer s.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	s.logger.Info("starting host", "port", s.config.Port, "data_dir", s.config.DataDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.logger.Info("host stopped")
	return err
}

func (s *service) Router() *gin.Engine { return s.router }

func (s *service) Transport() bridge.CommandTransport { return s.transport }

// Close releases the store and the log file. Idempotent via the
// underlying closers.
func (s *service) Close() error {
	var firstErr error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			firstErr = err
		}
	}
	if s.logger != nil {
		if err := s.logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// =============================================================================
// Private Initialization
// =============================================================================

func (s *service) initStore() error {
	var dbCfg storagebadger.Config
	if s.config.InMemory {
		dbCfg = storagebadger.InMemoryConfig()
	} else {
		dbCfg = storagebadger.DefaultConfig()
		dbCfg.Path = expandPath(s.config.DataDir)
	}
	dbCfg.Logger = s.logger.Slog()

	db, err := storagebadger.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	s.db = db
	s.store = store.New(db)
	return nil
}

func (s *service) initEngines() {
	s.broker = bridge.NewBroker()
	s.registry = bridge.NewCommandRegistry(bridge.Engines{
		Store:   s.store,
		Timer:   timer.New(s.store, nil),
		Invoice: invoice.New(s.store, nil),
		Broker:  s.broker,
	}, s.logger.Slog())
	s.transport = bridge.NewDirectTransport(s.registry)
}

func (s *service) initRouter() {
	gin.SetMode(s.config.GinMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())

	routes.SetupHostRoutes(s.router, s.registry, s.transport, s.logger.Slog())
}

// expandPath resolves a leading ~/ against the home directory. Paths it
// cannot resolve pass through unchanged.
func expandPath(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
