// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config_test.go
// Summary: Tests for config load/save behavior.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointstream.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerName != "pointstream-server" {
		t.Errorf("server name = %q, want pointstream-server", cfg.ServerName)
	}
	if cfg.Retention != 512 {
		t.Errorf("retention = %d, want 512", cfg.Retention)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default config written to %s: %v", path, err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointstream.json")

	want := Default()
	want.Socket = "/tmp/custom.sock"
	want.Exclude = []string{"scrollbar", "overlay"}
	want.Trace.Enabled = true
	want.Trace.Path = "/tmp/trace.db"
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Socket != want.Socket {
		t.Errorf("socket = %q, want %q", got.Socket, want.Socket)
	}
	if len(got.Exclude) != 2 || got.Exclude[0] != "scrollbar" {
		t.Errorf("exclude = %v, want %v", got.Exclude, want.Exclude)
	}
	if !got.Trace.Enabled || got.Trace.Path != "/tmp/trace.db" {
		t.Errorf("trace = %+v, want enabled at /tmp/trace.db", got.Trace)
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointstream.json")
	if err := os.WriteFile(path, []byte(`{"socket": "/tmp/x.sock"}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Socket != "/tmp/x.sock" {
		t.Errorf("socket = %q, want /tmp/x.sock", cfg.Socket)
	}
	if cfg.ServerName == "" || cfg.Retention <= 0 || cfg.Trace.BatchSize <= 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMalformedReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointstream.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	// Falls back to defaults so callers can keep running.
	if cfg.ServerName != "pointstream-server" {
		t.Errorf("fallback config = %+v", cfg)
	}
}
