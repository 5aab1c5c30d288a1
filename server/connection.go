package server

import (
	"io"
	"net"
	"sync"
	"time"

	"pointstream/protocol"
)

type connection struct {
	conn      net.Conn
	session   *Session
	lastSent  uint64
	lastAcked uint64
	writeMu   sync.Mutex
}

func newConnection(conn net.Conn, session *Session) *connection {
	return &connection{conn: conn, session: session}
}

// serve interleaves flushing queued gesture events with short-deadline reads
// of inbound frames. One raw notification in, at most one gesture frame out.
func (c *connection) serve() error {
	_ = c.conn.SetDeadline(time.Time{})
	for {
		if err := c.sendPending(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
		header, payload, err := protocol.ReadMessage(c.conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch header.Type {
		case protocol.MsgPointerEvent:
			ev, err := protocol.DecodePointerEvent(payload)
			if err != nil {
				return err
			}
			c.session.DeliverPointer(ev)
		case protocol.MsgTargetUpdate:
			update, err := protocol.DecodeTargetUpdate(payload)
			if err != nil {
				return err
			}
			c.session.ApplyTarget(update)
			id := c.session.ID()
			debugLog.Printf("session %x: target %q bounds [%g,%g %g,%g]",
				id[:4], update.Kind, update.MinX, update.MinY, update.MaxX, update.MaxY)
		case protocol.MsgResetRequest:
			c.session.ResetTracking()
		case protocol.MsgEventAck:
			ack, err := protocol.DecodeEventAck(payload)
			if err != nil {
				return err
			}
			c.session.Ack(ack.Sequence)
			if ack.Sequence > c.lastAcked {
				c.lastAcked = ack.Sequence
			}
		case protocol.MsgPing:
			ping, err := protocol.DecodePing(payload)
			if err != nil {
				return err
			}
			pongPayload, err := protocol.EncodePong(protocol.Pong{Timestamp: ping.Timestamp})
			if err != nil {
				return err
			}
			pongHeader := protocol.Header{
				Version:   protocol.Version,
				Type:      protocol.MsgPong,
				Flags:     protocol.FlagChecksum,
				SessionID: c.session.ID(),
			}
			if err := c.writeMessage(pongHeader, pongPayload); err != nil {
				return err
			}
		case protocol.MsgDisconnectNotice:
			return nil
		default:
			// Unknown messages are ignored for now.
		}
	}
}

func (c *connection) sendPending() error {
	pending := c.session.Pending(c.lastAcked)
	for _, pkt := range pending {
		if pkt.Sequence <= c.lastSent {
			continue
		}
		header := pkt.Message
		header.Sequence = pkt.Sequence
		header.SessionID = c.session.ID()
		if err := c.writeMessage(header, pkt.Payload); err != nil {
			return err
		}
		c.lastSent = pkt.Sequence
	}
	return nil
}

func (c *connection) writeMessage(header protocol.Header, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteMessage(c.conn, header, payload)
}
