// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/messages_test.go
// Summary: Exercises payload codecs to ensure the wire format remains reliable.
// Usage: Executed during `go test` to guard against regressions.

package protocol

import (
	"errors"
	"testing"
)

func TestPointerEventCodec(t *testing.T) {
	ev := PointerEvent{
		Kind:        PointerMove,
		X:           101.25,
		Y:           42.125,
		OffsetX:     4.5,
		OffsetY:     9.75,
		PointerID:   7,
		PointerType: "pen",
		Button:      -1,
		Buttons:     0x11,
		Timestamp:   87234.625,
	}
	payload, err := EncodePointerEvent(ev)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodePointerEvent(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != ev {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, ev)
	}

	if _, err := DecodePointerEvent(payload[:len(payload)-1]); err == nil {
		t.Fatalf("expected short payload error")
	}
	if _, err := DecodePointerEvent(append(payload, 0)); !errors.Is(err, errExtraBytes) {
		t.Fatalf("expected trailing-data error, got %v", err)
	}
}

func TestTargetUpdateCodec(t *testing.T) {
	u := TargetUpdate{Kind: "canvas", MinX: 0, MinY: 10, MaxX: 800.5, MaxY: 600.25}
	payload, err := EncodeTargetUpdate(u)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeTargetUpdate(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != u {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, u)
	}
}

func TestGestureEventCodec(t *testing.T) {
	ev := GestureEvent{
		Callback:  CallbackOutOfBounds,
		X:         500,
		Y:         500,
		OffsetX:   12,
		OffsetY:   13,
		PointerID: 3,
		EventType: 7,
		Device:    0,
		Button:    -1,
		Timestamp: 99.5,
	}
	payload, err := EncodeGestureEvent(ev)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeGestureEvent(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != ev {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, ev)
	}
}

func TestHandshakeCodecs(t *testing.T) {
	hello := Hello{ClientName: "feed", Capabilities: 3}
	copy(hello.ClientID[:], []byte("client-0123456"))
	payload, err := EncodeHello(hello)
	if err != nil {
		t.Fatalf("encode hello failed: %v", err)
	}
	gotHello, err := DecodeHello(payload)
	if err != nil {
		t.Fatalf("decode hello failed: %v", err)
	}
	if gotHello != hello {
		t.Fatalf("hello mismatch: %+v vs %+v", gotHello, hello)
	}

	welcome := Welcome{ServerName: "pointstream-server"}
	copy(welcome.SessionID[:], []byte("session-012345"))
	payload, err = EncodeWelcome(welcome)
	if err != nil {
		t.Fatalf("encode welcome failed: %v", err)
	}
	gotWelcome, err := DecodeWelcome(payload)
	if err != nil {
		t.Fatalf("decode welcome failed: %v", err)
	}
	if gotWelcome != welcome {
		t.Fatalf("welcome mismatch: %+v vs %+v", gotWelcome, welcome)
	}
}

func TestEventAckCodec(t *testing.T) {
	payload, err := EncodeEventAck(EventAck{Sequence: 77})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	ack, err := DecodeEventAck(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ack.Sequence != 77 {
		t.Fatalf("sequence mismatch: %d", ack.Sequence)
	}
	if _, err := DecodeEventAck(payload[:4]); err == nil {
		t.Fatalf("expected short payload error")
	}
}
