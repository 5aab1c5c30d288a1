// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: server/session_test.go
// Summary: Exercises session queueing and raw-event delivery.
// Usage: Executed during `go test` to guard against regressions.

package server

import (
	"testing"

	"pointstream/pointer"
	"pointstream/protocol"
)

type captureSink struct {
	callbacks []protocol.Callback
	events    []pointer.Event
}

func (c *captureSink) HandleGestureEvent(_ *Session, cb protocol.Callback, ev pointer.Event) {
	c.callbacks = append(c.callbacks, cb)
	c.events = append(c.events, ev)
}

func rawDown(id int32, x, y float64) protocol.PointerEvent {
	return protocol.PointerEvent{Kind: protocol.PointerDown, X: x, Y: y, PointerID: id, PointerType: "mouse", Buttons: 1}
}

func rawMove(id int32, x, y float64) protocol.PointerEvent {
	return protocol.PointerEvent{Kind: protocol.PointerMove, X: x, Y: y, PointerID: id, PointerType: "mouse", Buttons: 1, Button: -1}
}

func rawUp(id int32, x, y float64) protocol.PointerEvent {
	return protocol.PointerEvent{Kind: protocol.PointerUp, X: x, Y: y, PointerID: id, PointerType: "mouse"}
}

func newTestSession(sink GestureSink) *Session {
	var id [16]byte
	copy(id[:], []byte("test-session-01"))
	s := NewSession(id, 64, nil, sink)
	s.ApplyTarget(protocol.TargetUpdate{Kind: "canvas", MinX: 0, MinY: 0, MaxX: 100, MaxY: 100})
	return s
}

func TestSessionQueuesNormalizedEvents(t *testing.T) {
	sink := &captureSink{}
	s := newTestSession(sink)

	s.DeliverPointer(rawDown(1, 10, 10))
	s.DeliverPointer(rawMove(1, 20, 20))
	s.DeliverPointer(rawUp(1, 20, 20))

	pending := s.Pending(0)
	if len(pending) != 3 {
		t.Fatalf("expected 3 queued events, got %d", len(pending))
	}
	for i, pkt := range pending {
		if pkt.Sequence != uint64(i+1) {
			t.Fatalf("sequences must be dense from 1, got %d at %d", pkt.Sequence, i)
		}
		if pkt.Message.Type != protocol.MsgGestureEvent {
			t.Fatalf("unexpected message type %v", pkt.Message.Type)
		}
	}

	want := []protocol.Callback{protocol.CallbackDown, protocol.CallbackMove, protocol.CallbackUp}
	if len(sink.callbacks) != len(want) {
		t.Fatalf("sink saw %d events, want %d", len(sink.callbacks), len(want))
	}
	for i, cb := range want {
		if sink.callbacks[i] != cb {
			t.Fatalf("callback %d: got %v, want %v", i, sink.callbacks[i], cb)
		}
	}

	ev, err := protocol.DecodeGestureEvent(pending[0].Payload)
	if err != nil {
		t.Fatalf("decode queued payload: %v", err)
	}
	if ev.Callback != protocol.CallbackDown || ev.PointerID != 1 || ev.X != 10 {
		t.Fatalf("queued payload mismatch: %+v", ev)
	}
}

func TestSessionAckTrimsQueue(t *testing.T) {
	s := newTestSession(nil)

	s.DeliverPointer(rawDown(1, 10, 10))
	s.DeliverPointer(rawMove(1, 20, 20))
	s.DeliverPointer(rawUp(1, 20, 20))

	s.Ack(2)
	pending := s.Pending(0)
	if len(pending) != 1 || pending[0].Sequence != 3 {
		t.Fatalf("ack should trim through sequence 2, pending=%v", pending)
	}
	if got := s.Pending(3); len(got) != 0 {
		t.Fatalf("expected nothing above acked watermark, got %d", len(got))
	}
}

func TestSessionResetAbsorbsStrayUp(t *testing.T) {
	s := newTestSession(nil)

	s.DeliverPointer(rawDown(1, 10, 10))
	s.ResetTracking()
	if s.ActivePointers() != 0 {
		t.Fatalf("reset must zero the counter")
	}

	before := len(s.Pending(0))
	s.DeliverPointer(rawUp(1, 10, 10))
	if got := len(s.Pending(0)); got != before {
		t.Fatalf("stray up after reset must not emit, queue grew %d -> %d", before, got)
	}
}

func TestSessionCloseStopsQueueing(t *testing.T) {
	s := newTestSession(nil)
	s.Close()
	s.DeliverPointer(rawDown(1, 10, 10))
	if len(s.Pending(0)) != 0 {
		t.Fatalf("closed session must not queue events")
	}
}
