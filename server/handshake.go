package server

import (
	"bytes"
	"errors"
	"io"

	"pointstream/protocol"
)

var errUnexpectedMessage = errors.New("server: unexpected message type")

// handleHandshake performs the initial client/server negotiation. A zero
// session id in the connect request creates a fresh session; a non-zero id
// resumes an existing one.
func handleHandshake(rw io.ReadWriter, mgr *Manager) (*Session, error) {
	hdr, payload, err := protocol.ReadMessage(rw)
	if err != nil {
		return nil, err
	}
	if hdr.Type != protocol.MsgHello {
		return nil, errUnexpectedMessage
	}
	if _, err := protocol.DecodeHello(payload); err != nil {
		return nil, err
	}

	welcomePayload, err := protocol.EncodeWelcome(protocol.Welcome{ServerName: mgr.ServerName()})
	if err != nil {
		return nil, err
	}
	welcomeHeader := protocol.Header{
		Version: protocol.Version,
		Type:    protocol.MsgWelcome,
		Flags:   protocol.FlagChecksum,
	}
	if err := protocol.WriteMessage(rw, welcomeHeader, welcomePayload); err != nil {
		return nil, err
	}

	hdr, payload, err = protocol.ReadMessage(rw)
	if err != nil {
		return nil, err
	}
	if hdr.Type != protocol.MsgConnectRequest {
		return nil, errUnexpectedMessage
	}
	connectReq, err := protocol.DecodeConnectRequest(payload)
	if err != nil {
		return nil, err
	}

	var session *Session
	zeroID := [16]byte{}
	if bytes.Equal(connectReq.SessionID[:], zeroID[:]) {
		session, err = mgr.NewSession()
		if err != nil {
			return nil, err
		}
	} else {
		session, err = mgr.Lookup(connectReq.SessionID)
		if err != nil {
			return nil, err
		}
	}

	acceptPayload, err := protocol.EncodeConnectAccept(protocol.ConnectAccept{SessionID: session.ID()})
	if err != nil {
		return nil, err
	}
	acceptHeader := protocol.Header{
		Version:   protocol.Version,
		Type:      protocol.MsgConnectAccept,
		Flags:     protocol.FlagChecksum,
		SessionID: session.ID(),
	}
	if err := protocol.WriteMessage(rw, acceptHeader, acceptPayload); err != nil {
		return nil, err
	}
	return session, nil
}
