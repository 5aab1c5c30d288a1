package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pointstream/protocol"
	"pointstream/server"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "ps.sock")
	srv := server.NewServer(socket, server.NewManager())
	if err := srv.Start(); err != nil {
		t.Fatalf("server start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return socket
}

func TestConnectAndStream(t *testing.T) {
	socket := startTestServer(t)

	c := New(socket, "feed-test")
	var sessionID [16]byte
	conn, err := c.Connect(&sessionID)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	if sessionID == ([16]byte{}) {
		t.Fatal("expected allocated session id")
	}

	if err := SendTarget(conn, sessionID, protocol.TargetUpdate{Kind: "canvas", MaxX: 100, MaxY: 100}); err != nil {
		t.Fatalf("SendTarget: %v", err)
	}
	down := protocol.PointerEvent{
		Kind: protocol.PointerDown, X: 10, Y: 10, OffsetX: 10, OffsetY: 10,
		PointerID: 1, PointerType: "mouse", Button: 0, Buttons: 1, Timestamp: 1000,
	}
	if err := SendPointer(conn, sessionID, down); err != nil {
		t.Fatalf("SendPointer: %v", err)
	}

	ev, seq, err := ReadGesture(conn)
	if err != nil {
		t.Fatalf("ReadGesture: %v", err)
	}
	if ev.Callback != protocol.CallbackDown {
		t.Errorf("callback = %v, want Down", ev.Callback)
	}
	if ev.X != 10 || ev.PointerID != 1 {
		t.Errorf("event = %+v", ev)
	}
	if seq == 0 {
		t.Error("expected non-zero sequence")
	}

	if err := SendAck(conn, sessionID, seq); err != nil {
		t.Fatalf("SendAck: %v", err)
	}
	if err := SendDisconnect(conn, sessionID, "done"); err != nil {
		t.Fatalf("SendDisconnect: %v", err)
	}
}

func TestConnectResumesSession(t *testing.T) {
	socket := startTestServer(t)
	c := New(socket, "feed-test")

	var sessionID [16]byte
	conn, err := c.Connect(&sessionID)
	if err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	SendDisconnect(conn, sessionID, "reconnecting")
	conn.Close()

	resumed := sessionID
	conn2, err := c.Connect(&resumed)
	if err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	defer conn2.Close()
	if resumed != sessionID {
		t.Errorf("resumed id %x, want %x", resumed, sessionID)
	}
}

func TestFormatUUID(t *testing.T) {
	var id [16]byte
	id[0] = 0xde
	id[1] = 0xad
	got := FormatUUID(id)
	want := "dead0000-0000-0000-0000-000000000000"
	if got != want {
		t.Errorf("FormatUUID = %q, want %q", got, want)
	}
}
