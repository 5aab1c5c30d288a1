// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: gateway/gateway.go
// Summary: WebSocket ingress for browser pointer streams.
// Usage: Mount Gateway as an http.Handler; each connection gets its own
//        normalizer and target.
// Notes: Raw pointer notifications arrive as JSON text frames, normalized
//        gesture events go back the same way.

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pointstream/pointer"
	"pointstream/server"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 1 << 20
)

// InboundFrame is the JSON envelope clients send.
type InboundFrame struct {
	Type string `json:"type"` // "pointer", "target" or "reset"

	// Pointer fields.
	Kind        string  `json:"kind,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	OffsetX     float64 `json:"offsetX,omitempty"`
	OffsetY     float64 `json:"offsetY,omitempty"`
	PointerID   int32   `json:"pointerId,omitempty"`
	PointerType string  `json:"pointerType,omitempty"`
	Button      int     `json:"button,omitempty"`
	Buttons     uint32  `json:"buttons,omitempty"`
	Timestamp   float64 `json:"timestamp,omitempty"`

	// Target fields.
	TargetKind string  `json:"targetKind,omitempty"`
	MinX       float64 `json:"minX,omitempty"`
	MinY       float64 `json:"minY,omitempty"`
	MaxX       float64 `json:"maxX,omitempty"`
	MaxY       float64 `json:"maxY,omitempty"`
}

// OutboundFrame is the JSON envelope the gateway sends back.
type OutboundFrame struct {
	Type      string  `json:"type"` // "gesture" or "error"
	Callback  string  `json:"callback,omitempty"`
	EventType string  `json:"eventType,omitempty"`
	Device    string  `json:"device,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	OffsetX   float64 `json:"offsetX"`
	OffsetY   float64 `json:"offsetY"`
	PointerID int32   `json:"pointerId"`
	Button    int8    `json:"button"`
	Timestamp float64 `json:"timestamp"`
	Message   string  `json:"message,omitempty"`
}

var rawKinds = map[string]pointer.RawKind{
	"down":        pointer.RawDown,
	"up":          pointer.RawUp,
	"move":        pointer.RawMove,
	"cancel":      pointer.RawCancel,
	"enter":       pointer.RawEnter,
	"leave":       pointer.RawLeave,
	"lostcapture": pointer.RawLostCapture,
}

// Gateway upgrades HTTP requests to websocket pointer streams. Each
// connection runs its own tracking state so browsers can stream raw
// pointer events and read back normalized gestures.
type Gateway struct {
	upgrader websocket.Upgrader
	exclude  []string
}

// New returns a Gateway. exclude lists target kinds that never take
// pointer capture.
func New(exclude []string) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The gateway binds to loopback; cross-origin pages are fine.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		exclude: exclude,
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debugLog.Printf("Gateway: upgrade failed: %v", err)
		return
	}
	c := newWSClient(conn, g.exclude)
	go c.pingLoop()
	c.readLoop()
}

// wsClient is one websocket connection with its own normalizer.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	target  *server.Target
	manager *pointer.Manager

	done chan struct{}
}

func newWSClient(conn *websocket.Conn, exclude []string) *wsClient {
	c := &wsClient{
		conn:   conn,
		target: server.NewTarget(),
		done:   make(chan struct{}),
	}
	c.manager = pointer.NewManager(c.target, &wsEmitter{client: c}, exclude)

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return c
}

func (c *wsClient) readLoop() {
	defer c.close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				debugLog.Printf("Gateway: read error: %v", err)
			}
			return
		}
		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.writeError(fmt.Sprintf("bad frame: %v", err))
			continue
		}
		c.handleFrame(frame)
	}
}

func (c *wsClient) handleFrame(frame InboundFrame) {
	switch frame.Type {
	case "pointer":
		kind, ok := rawKinds[frame.Kind]
		if !ok {
			c.writeError(fmt.Sprintf("unknown pointer kind %q", frame.Kind))
			return
		}
		c.target.NoteButtons(pointer.PointerID(frame.PointerID), frame.Buttons)
		c.manager.Handle(pointer.RawEvent{
			Kind:        kind,
			X:           frame.X,
			Y:           frame.Y,
			OffsetX:     frame.OffsetX,
			OffsetY:     frame.OffsetY,
			PointerID:   pointer.PointerID(frame.PointerID),
			PointerType: frame.PointerType,
			Button:      frame.Button,
			Buttons:     frame.Buttons,
			Timestamp:   frame.Timestamp,
		})

	case "target":
		c.target.Apply(frame.TargetKind, pointer.Rect{
			MinX: frame.MinX, MinY: frame.MinY,
			MaxX: frame.MaxX, MaxY: frame.MaxY,
		})

	case "reset":
		c.manager.Reset()

	default:
		c.writeError(fmt.Sprintf("unknown frame type %q", frame.Type))
	}
}

func (c *wsClient) pingLoop() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *wsClient) writeJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		debugLog.Printf("Gateway: write error: %v", err)
	}
}

func (c *wsClient) writeError(msg string) {
	c.writeJSON(OutboundFrame{Type: "error", Message: msg})
}

func (c *wsClient) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.conn.Close()
}

func (c *wsClient) emit(callback string, ev pointer.Event) {
	c.writeJSON(OutboundFrame{
		Type:      "gesture",
		Callback:  callback,
		EventType: ev.Type.String(),
		Device:    ev.Device.String(),
		X:         ev.X,
		Y:         ev.Y,
		OffsetX:   ev.OffsetX,
		OffsetY:   ev.OffsetY,
		PointerID: int32(ev.PointerID),
		Button:    int8(ev.Button),
		Timestamp: ev.Timestamp,
	})
}

// wsEmitter forwards normalized callbacks to the websocket peer.
type wsEmitter struct {
	client *wsClient
}

func (e *wsEmitter) OnPointerDown(ev pointer.Event)        { e.client.emit("down", ev) }
func (e *wsEmitter) OnPointerAdd(ev pointer.Event)         { e.client.emit("add", ev) }
func (e *wsEmitter) OnPointerUp(ev pointer.Event)          { e.client.emit("up", ev) }
func (e *wsEmitter) OnPointerRemove(ev pointer.Event)      { e.client.emit("remove", ev) }
func (e *wsEmitter) OnPointerMove(ev pointer.Event)        { e.client.emit("move", ev) }
func (e *wsEmitter) OnPointerEnter(ev pointer.Event)       { e.client.emit("enter", ev) }
func (e *wsEmitter) OnPointerLeave(ev pointer.Event)       { e.client.emit("leave", ev) }
func (e *wsEmitter) OnPointerOutOfBounds(ev pointer.Event) { e.client.emit("out-of-bounds", ev) }
func (e *wsEmitter) OnPointerCancel(ev pointer.Event)      { e.client.emit("cancel", ev) }
func (e *wsEmitter) OnPointerMoveOver(ev pointer.Event)    { e.client.emit("move-over", ev) }
func (e *wsEmitter) OnPointerMoveOut(ev pointer.Event)     { e.client.emit("move-out", ev) }
