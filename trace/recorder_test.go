// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/recorder_test.go
// Summary: Tests for the SQLite trace recorder.

package trace

import (
	"path/filepath"
	"testing"
	"time"

	"pointstream/pointer"
	"pointstream/protocol"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "trace.db"))
	cfg.BatchSize = 4
	cfg.BatchTimeout = 50 * time.Millisecond
	r, err := NewRecorderWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewRecorderWithConfig: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleEvent(id pointer.PointerID, x, y float64) pointer.Event {
	return pointer.Event{
		X:         x,
		Y:         y,
		OffsetX:   x,
		OffsetY:   y,
		PointerID: id,
		Type:      pointer.TypeMove,
		Device:    pointer.DeviceMouse,
		Button:    pointer.ButtonNone,
		Timestamp: 1000,
	}
}

func TestRecordAndQuery(t *testing.T) {
	r := newTestRecorder(t)

	var session [16]byte
	session[0] = 0xab

	for i := 0; i < 6; i++ {
		ev := sampleEvent(7, float64(i), float64(i))
		if err := r.Record(session, protocol.CallbackMove, ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	recs, err := r.Query(QueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 6 {
		t.Fatalf("expected 6 records, got %d", len(recs))
	}
	if recs[0].Callback != "move" {
		t.Errorf("callback = %q, want move", recs[0].Callback)
	}
	if recs[0].Device != "mouse" {
		t.Errorf("device = %q, want mouse", recs[0].Device)
	}
	if recs[0].PointerID != 7 {
		t.Errorf("pointer id = %d, want 7", recs[0].PointerID)
	}
}

func TestQueryByPointer(t *testing.T) {
	r := newTestRecorder(t)

	var session [16]byte
	r.Record(session, protocol.CallbackDown, sampleEvent(1, 10, 10))
	r.Record(session, protocol.CallbackDown, sampleEvent(2, 20, 20))
	r.Record(session, protocol.CallbackUp, sampleEvent(1, 11, 11))
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	recs, err := r.Query(QueryOpts{PointerID: 1, ByPointer: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records for pointer 1, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.PointerID != 1 {
			t.Errorf("pointer id = %d, want 1", rec.PointerID)
		}
	}
}

func TestQueryBySession(t *testing.T) {
	r := newTestRecorder(t)

	var a, b [16]byte
	a[0], b[0] = 0x01, 0x02
	r.Record(a, protocol.CallbackDown, sampleEvent(1, 0, 0))
	r.Record(b, protocol.CallbackDown, sampleEvent(1, 0, 0))
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	recs, err := r.Query(QueryOpts{Session: "01000000000000000000000000000000"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record for session a, got %d", len(recs))
	}
}

func TestQueryLimitAndOrder(t *testing.T) {
	r := newTestRecorder(t)

	var session [16]byte
	for i := 0; i < 10; i++ {
		r.Record(session, protocol.CallbackMove, sampleEvent(3, float64(i), 0))
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	recs, err := r.Query(QueryOpts{Limit: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	// Newest first: the last write has the highest x.
	if recs[0].X != 9 {
		t.Errorf("newest record x = %v, want 9", recs[0].X)
	}
}

func TestRecorderSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.db")

	r, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	var session [16]byte
	r.Record(session, protocol.CallbackDown, sampleEvent(5, 1, 2))
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	recs, err := r2.Query(QueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(recs))
	}
}
