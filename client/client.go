package client

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"pointstream/protocol"
)

// Client handles the connection to a pointstream server over its unix socket.
type Client struct {
	socketPath string
	clientName string
}

// New creates a client for the server at socketPath.
func New(socketPath, clientName string) *Client {
	if clientName == "" {
		clientName = "pointstream-client"
	}
	return &Client{socketPath: socketPath, clientName: clientName}
}

// Connect performs the protocol handshake. If sessionID is nil or zeroed, the
// server will allocate a fresh session.
func (c *Client) Connect(sessionID *[16]byte) (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	helloPayload, err := protocol.EncodeHello(protocol.Hello{ClientName: c.clientName})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := protocol.WriteMessage(conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgHello, Flags: protocol.FlagChecksum}, helloPayload); err != nil {
		conn.Close()
		return nil, err
	}

	hdr, _, err := protocol.ReadMessage(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if hdr.Type != protocol.MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("unexpected message %v", hdr.Type)
	}

	var req protocol.ConnectRequest
	if sessionID != nil {
		req.SessionID = *sessionID
	}
	connectPayload, err := protocol.EncodeConnectRequest(req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := protocol.WriteMessage(conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgConnectRequest, Flags: protocol.FlagChecksum}, connectPayload); err != nil {
		conn.Close()
		return nil, err
	}

	hdr, payload, err := protocol.ReadMessage(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if hdr.Type != protocol.MsgConnectAccept {
		conn.Close()
		return nil, fmt.Errorf("unexpected message %v", hdr.Type)
	}

	accept, err := protocol.DecodeConnectAccept(payload)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if sessionID != nil {
		*sessionID = accept.SessionID
	}
	return conn, nil
}

// SendPointer delivers one raw pointer notification.
func SendPointer(conn net.Conn, sessionID [16]byte, ev protocol.PointerEvent) error {
	payload, err := protocol.EncodePointerEvent(ev)
	if err != nil {
		return err
	}
	return protocol.WriteMessage(conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgPointerEvent, Flags: protocol.FlagChecksum, SessionID: sessionID}, payload)
}

// SendTarget reports the managed element's kind and bounds.
func SendTarget(conn net.Conn, sessionID [16]byte, u protocol.TargetUpdate) error {
	payload, err := protocol.EncodeTargetUpdate(u)
	if err != nil {
		return err
	}
	return protocol.WriteMessage(conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgTargetUpdate, Flags: protocol.FlagChecksum, SessionID: sessionID}, payload)
}

// SendReset asks the server to drop all tracking state for the session.
func SendReset(conn net.Conn, sessionID [16]byte) error {
	return protocol.WriteMessage(conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgResetRequest, Flags: protocol.FlagChecksum, SessionID: sessionID}, nil)
}

// SendAck confirms receipt of every gesture event up to sequence.
func SendAck(conn net.Conn, sessionID [16]byte, sequence uint64) error {
	payload, err := protocol.EncodeEventAck(protocol.EventAck{Sequence: sequence})
	if err != nil {
		return err
	}
	return protocol.WriteMessage(conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgEventAck, Flags: protocol.FlagChecksum, SessionID: sessionID}, payload)
}

// SendDisconnect announces an orderly shutdown.
func SendDisconnect(conn net.Conn, sessionID [16]byte, message string) error {
	payload, err := protocol.EncodeDisconnectNotice(protocol.DisconnectNotice{Message: message})
	if err != nil {
		return err
	}
	return protocol.WriteMessage(conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgDisconnectNotice, Flags: protocol.FlagChecksum, SessionID: sessionID}, payload)
}

// ReadGesture blocks until the next gesture event arrives, skipping pongs and
// other non-gesture traffic. The returned sequence comes from the frame header
// and feeds SendAck.
func ReadGesture(conn net.Conn) (protocol.GestureEvent, uint64, error) {
	for {
		hdr, payload, err := protocol.ReadMessage(conn)
		if err != nil {
			return protocol.GestureEvent{}, 0, err
		}
		switch hdr.Type {
		case protocol.MsgGestureEvent:
			ev, err := protocol.DecodeGestureEvent(payload)
			if err != nil {
				return protocol.GestureEvent{}, 0, err
			}
			return ev, hdr.Sequence, nil
		case protocol.MsgPong, protocol.MsgPing:
			continue
		case protocol.MsgError:
			frame, decErr := protocol.DecodeErrorFrame(payload)
			if decErr != nil {
				return protocol.GestureEvent{}, 0, decErr
			}
			return protocol.GestureEvent{}, 0, fmt.Errorf("server error %d: %s", frame.Code, frame.Message)
		default:
			continue
		}
	}
}

// FormatUUID returns the session ID as a human readable string.
func FormatUUID(id [16]byte) string {
	var buf bytes.Buffer
	for i, b := range id {
		buf.WriteString(hex.EncodeToString([]byte{b}))
		switch i {
		case 3, 5, 7, 9:
			buf.WriteByte('-')
		}
	}
	return buf.String()
}
