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
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the chronoctl configuration, read from ~/.chrono/config.yaml
// when present.
type Config struct {
	// HostURL is the websocket endpoint of the host's command channel.
	HostURL string `yaml:"host_url"`

	// GatewayPort is the listen port of the gateway subcommand.
	GatewayPort int `yaml:"gateway_port"`

	// RoundingUnit is the default stop rounding in minutes. One of
	// 5, 10, 15, 30, 60.
	RoundingUnit int `yaml:"rounding_unit"`

	// LogDir enables file logging when set.
	LogDir string `yaml:"log_dir"`
}

func defaultConfig() Config {
	return Config{
		HostURL:      "ws://127.0.0.1:8311/api/ipc/ws",
		GatewayPort:  8312,
		RoundingUnit: 15,
	}
}

// loadConfig reads ~/.chrono/config.yaml over the defaults. A missing
// file is not an error; a malformed one is.
func loadConfig() (Config, error) {
	cfg := defaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}
	path := filepath.Join(home, ".chrono", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
