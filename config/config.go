// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Configuration for pointstream server and clients.

package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const configName = "pointstream.json"

// TraceConfig controls the optional SQLite event trace.
type TraceConfig struct {
	Enabled        bool   `json:"enabled"`
	Path           string `json:"path,omitempty"`
	BatchSize      int    `json:"batch_size,omitempty"`
	BatchTimeoutMS int    `json:"batch_timeout_ms,omitempty"`
}

// GatewayConfig controls the websocket ingress.
type GatewayConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// Config holds the pointstream settings shared by server and clients.
type Config struct {
	// Socket is the unix socket path the server listens on.
	Socket string `json:"socket"`

	// ServerName is announced during the handshake.
	ServerName string `json:"server_name"`

	// Exclude lists target kinds whose events skip pointer capture.
	Exclude []string `json:"exclude,omitempty"`

	// Retention caps the number of unacked events kept per session.
	Retention int `json:"retention,omitempty"`

	Verbose bool          `json:"verbose,omitempty"`
	Trace   TraceConfig   `json:"trace"`
	Gateway GatewayConfig `json:"gateway"`
}

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "pointstream"), nil
}

// Path returns the default config file location.
func Path() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configName), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Socket:     defaultSocketPath(),
		ServerName: "pointstream-server",
		Retention:  512,
		Trace: TraceConfig{
			BatchSize:      100,
			BatchTimeoutMS: 2000,
		},
		Gateway: GatewayConfig{
			Addr: "127.0.0.1:7420",
		},
	}
}

func defaultSocketPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "pointstream.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("pointstream-%d.sock", os.Getuid()))
}

// Load reads the config at path. An empty path uses the default location.
// A missing file yields the defaults and writes them out so the user has a
// file to edit.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			log.Printf("Config: Failed to resolve config path: %v", err)
			return Default(), err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if writeErr := Save(path, cfg); writeErr != nil {
				log.Printf("Config: Failed to write default config: %v", writeErr)
			}
			return cfg, nil
		}
		return Default(), err
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("Config: Failed to parse %s: %v", path, err)
		return Default(), err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyDefaults fills fields the user's file left empty.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Socket == "" {
		cfg.Socket = def.Socket
	}
	if cfg.ServerName == "" {
		cfg.ServerName = def.ServerName
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.Trace.BatchSize <= 0 {
		cfg.Trace.BatchSize = def.Trace.BatchSize
	}
	if cfg.Trace.BatchTimeoutMS <= 0 {
		cfg.Trace.BatchTimeoutMS = def.Trace.BatchTimeoutMS
	}
	if cfg.Trace.Enabled && cfg.Trace.Path == "" {
		if root, err := configRoot(); err == nil {
			cfg.Trace.Path = filepath.Join(root, "trace.db")
		}
	}
	if cfg.Gateway.Addr == "" {
		cfg.Gateway.Addr = def.Gateway.Addr
	}
}
