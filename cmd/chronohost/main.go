// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command chronohost starts the ChronoLocal host: the entity store, the
// timer and invoice engines, and the HTTP/websocket command surface.
//
// # Environment Variables
//
//   - CHRONO_PORT: HTTP listen port (default: 8311)
//   - CHRONO_DATA_DIR: Badger database directory (default: ~/.chrono/data)
//   - CHRONO_LOG_DIR: log file directory (empty disables file logging)
//   - CHRONO_LOG_LEVEL: debug, info, warn, error (default: info)
//   - GIN_MODE: debug, release, test (default: release)
//
// # Usage
//
//	go build -o chronohost ./cmd/chronohost
//	./chronohost
package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/AleutianAI/ChronoLocal/pkg/logging"
	"github.com/AleutianAI/ChronoLocal/services/host"
)

func main() {
	cfg := host.Config{
		Port:    getEnvInt("CHRONO_PORT", 8311),
		DataDir: getEnvString("CHRONO_DATA_DIR", "~/.chrono/data"),
		GinMode: os.Getenv("GIN_MODE"),
		Logging: logging.Config{
			Level:   logging.ParseLevel(getEnvString("CHRONO_LOG_LEVEL", "info")),
			LogDir:  os.Getenv("CHRONO_LOG_DIR"),
			Service: "chronohost",
		},
	}

	svc, err := host.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create host: %v", err)
	}

	if err := svc.Run(context.Background()); err != nil {
		log.Fatalf("Host error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable parsed as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
