// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: server/manager_test.go
// Summary: Exercises session registry behaviour.
// Usage: Executed during `go test` to guard against regressions.

package server

import (
	"testing"

	"pointstream/protocol"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	session, err := m.NewSession()
	if err != nil {
		t.Fatalf("new session failed: %v", err)
	}
	if m.ActiveSessions() != 1 {
		t.Fatalf("expected 1 active session")
	}

	found, err := m.Lookup(session.ID())
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found != session {
		t.Fatalf("lookup returned different session")
	}

	m.Close(session.ID())
	if m.ActiveSessions() != 0 {
		t.Fatalf("expected 0 active sessions after close")
	}
	if _, err := m.Lookup(session.ID()); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerRetentionUpdate(t *testing.T) {
	m := NewManager()
	session, err := m.NewSession()
	if err != nil {
		t.Fatalf("new session failed: %v", err)
	}

	m.SetRetentionLimit(1)
	session.ApplyTarget(protocol.TargetUpdate{Kind: "canvas", MaxX: 100, MaxY: 100})
	session.DeliverPointer(protocol.PointerEvent{
		Kind: protocol.PointerDown, X: 10, Y: 10, PointerID: 1, PointerType: "mouse", Buttons: 1,
	})
	session.DeliverPointer(protocol.PointerEvent{
		Kind: protocol.PointerMove, X: 11, Y: 11, PointerID: 1, PointerType: "mouse", Buttons: 1, Button: -1,
	})
	if got := len(session.Pending(0)); got != 1 {
		t.Fatalf("retention limit not respected: %d queued", got)
	}

	stats := m.SessionStats()
	if len(stats) != 1 {
		t.Fatalf("expected stats for 1 session, got %d", len(stats))
	}
	if stats[0].ActivePointers != 1 {
		t.Fatalf("expected 1 active pointer in stats, got %d", stats[0].ActivePointers)
	}
}

func TestManagerExcludedKindsReachSessions(t *testing.T) {
	m := NewManager()
	m.SetExcludedKinds([]string{"input"})
	session, err := m.NewSession()
	if err != nil {
		t.Fatalf("new session failed: %v", err)
	}

	session.ApplyTarget(protocol.TargetUpdate{Kind: "input", MaxX: 100, MaxY: 100})
	session.DeliverPointer(protocol.PointerEvent{
		Kind: protocol.PointerDown, X: 10, Y: 10, PointerID: 1, PointerType: "mouse", Buttons: 1,
	})
	session.DeliverPointer(protocol.PointerEvent{
		Kind: protocol.PointerMove, X: 11, Y: 11, PointerID: 1, PointerType: "mouse", Buttons: 1, Button: -1,
	})
	if session.target.HasCapture(1) {
		t.Fatalf("capture must never be acquired for an excluded target kind")
	}
}
