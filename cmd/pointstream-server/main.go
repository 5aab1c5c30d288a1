// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/pointstream-server/main.go
// Summary: Entry point for the pointstream normalization server.
// Usage: Started by operators; clients connect over the unix socket or the
//        websocket gateway and stream raw pointer notifications.
// Notes: Focuses on wiring flags, config, and lifecycle around the runtime.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"pointstream/config"
	"pointstream/gateway"
	"pointstream/server"
	"pointstream/trace"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: user config dir)")
	socketPath := flag.String("socket", "", "Unix socket path (overrides config)")
	wsAddr := flag.String("ws", "", "WebSocket gateway listen address (overrides config)")
	tracePath := flag.String("trace", "", "SQLite trace database path (enables tracing)")
	cpuProfile := flag.String("pprof-cpu", "", "Write CPU profile to file")
	memProfile := flag.String("pprof-mem", "", "Write heap profile to file on exit")
	verboseLogs := flag.Bool("verbose-logs", false, "Enable verbose server logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Config load problem, continuing with defaults: %v", err)
	}
	if *socketPath != "" {
		cfg.Socket = *socketPath
	}
	if *wsAddr != "" {
		cfg.Gateway.Enabled = true
		cfg.Gateway.Addr = *wsAddr
	}
	if *tracePath != "" {
		cfg.Trace.Enabled = true
		cfg.Trace.Path = *tracePath
	}
	if *verboseLogs {
		cfg.Verbose = true
	}

	server.SetVerboseLogging(cfg.Verbose)
	gateway.SetVerboseLogging(cfg.Verbose)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create CPU profile: %v\n", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	manager := server.NewManager()
	manager.SetServerName(cfg.ServerName)
	manager.SetExcludedKinds(cfg.Exclude)
	manager.SetRetentionLimit(cfg.Retention)

	var recorder *trace.SQLiteRecorder
	if cfg.Trace.Enabled {
		traceCfg := trace.DefaultConfig(cfg.Trace.Path)
		traceCfg.BatchSize = cfg.Trace.BatchSize
		traceCfg.BatchTimeout = time.Duration(cfg.Trace.BatchTimeoutMS) * time.Millisecond
		recorder, err = trace.NewRecorderWithConfig(traceCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open trace database: %v\n", err)
			os.Exit(1)
		}
		manager.SetSink(recorder)
		log.Printf("Tracing events to %s", cfg.Trace.Path)
	}

	srv := server.NewServer(cfg.Socket, manager)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	var gwServer *http.Server
	if cfg.Gateway.Enabled {
		gw := gateway.New(cfg.Exclude)
		mux := http.NewServeMux()
		mux.Handle("/pointer", gw)
		gwServer = &http.Server{Addr: cfg.Gateway.Addr, Handler: mux}
		go func() {
			if err := gwServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
				os.Exit(1)
			}
		}()
		fmt.Printf("WebSocket gateway listening on ws://%s/pointer\n", cfg.Gateway.Addr)
	}

	fmt.Printf("Pointstream server listening on %s\n", cfg.Socket)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigCh
		if sig == syscall.SIGHUP {
			log.Println("Received SIGHUP, reloading configuration...")
			reloaded, err := config.Load(*configPath)
			if err != nil {
				log.Printf("Failed to reload config: %v", err)
				continue
			}
			manager.SetServerName(reloaded.ServerName)
			manager.SetExcludedKinds(reloaded.Exclude)
			manager.SetRetentionLimit(reloaded.Retention)
			server.SetVerboseLogging(reloaded.Verbose)
			gateway.SetVerboseLogging(reloaded.Verbose)
			log.Println("Configuration reloaded.")
			continue
		}
		// SIGINT or SIGTERM -> Exit
		break
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	if gwServer != nil {
		_ = gwServer.Shutdown(ctx)
	}
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			log.Printf("Failed to close trace recorder: %v", err)
		}
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create heap profile: %v\n", err)
		} else {
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write heap profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	fmt.Println("Server stopped")
}
