// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: server/session.go
// Summary: Per-client session: pointer tracking state plus the outbound event queue.
// Usage: Created by the Manager; fed by a connection's read loop.
// Notes: Tracking state lives on the session so it survives reconnects.

package server

import (
	"errors"
	"sync"

	"pointstream/pointer"
	"pointstream/protocol"
)

var ErrSessionClosed = errors.New("server: session closed")

// EventPacket holds a serialised gesture event ready to be sent to clients.
type EventPacket struct {
	Sequence uint64
	Payload  []byte
	Message  protocol.Header
}

// Session binds one managed target to one pointer Manager and queues the
// normalized events it produces. The queue is sequence-numbered and trimmed
// by client acks so a reconnecting consumer can pick up where it left off.
type Session struct {
	id       [16]byte
	target   *Target
	pointers *pointer.Manager
	sink     GestureSink

	mu           sync.Mutex
	nextSequence uint64
	queue        []EventPacket
	maxQueued    int
	closed       bool
}

func NewSession(id [16]byte, maxQueued int, exclude []string, sink GestureSink) *Session {
	if maxQueued < 0 {
		maxQueued = 0
	}
	if sink == nil {
		sink = nopSink{}
	}
	s := &Session{
		id:        id,
		target:    NewTarget(),
		sink:      sink,
		queue:     make([]EventPacket, 0, 128),
		maxQueued: maxQueued,
	}
	s.pointers = pointer.NewManager(s.target, &emitter{session: s}, exclude)
	return s
}

func (s *Session) ID() [16]byte {
	return s.id
}

// DeliverPointer feeds one raw native notification into the session's
// tracking state. Callers must serialise delivery; a session is bound to a
// single connection at a time.
func (s *Session) DeliverPointer(ev protocol.PointerEvent) {
	id := pointer.PointerID(ev.PointerID)
	s.target.NoteButtons(id, ev.Buttons)
	s.pointers.Handle(pointer.RawEvent{
		Kind:        rawKind(ev.Kind),
		X:           ev.X,
		Y:           ev.Y,
		OffsetX:     ev.OffsetX,
		OffsetY:     ev.OffsetY,
		PointerID:   id,
		PointerType: ev.PointerType,
		Button:      int(ev.Button),
		Buttons:     ev.Buttons,
		Timestamp:   ev.Timestamp,
	})
}

// ApplyTarget updates the managed target's kind and bounds.
func (s *Session) ApplyTarget(u protocol.TargetUpdate) {
	s.target.Apply(u.Kind, pointer.Rect{MinX: u.MinX, MinY: u.MinY, MaxX: u.MaxX, MaxY: u.MaxY})
}

// ResetTracking clears the pressed set and counter unconditionally. Safe at
// any time, including mid-gesture.
func (s *Session) ResetTracking() {
	s.pointers.Reset()
}

// ActivePointers exposes the current pressed-pointer count.
func (s *Session) ActivePointers() int {
	return s.pointers.ActivePointers()
}

// Pending returns queued packets with sequence above lastAcked.
func (s *Session) Pending(lastAcked uint64) []EventPacket {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := make([]EventPacket, 0, len(s.queue))
	for _, pkt := range s.queue {
		if pkt.Sequence > lastAcked {
			pending = append(pending, pkt)
		}
	}
	return pending
}

// Ack drops queued packets up to and including the acked sequence.
func (s *Session) Ack(sequence uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := s.queue[:0]
	for _, pkt := range s.queue {
		if pkt.Sequence > sequence {
			keep = append(keep, pkt)
		}
	}
	s.queue = keep
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queue = nil
}

// Stats summarises queue state for operators.
type SessionStats struct {
	ID             [16]byte
	QueuedEvents   int
	ActivePointers int
}

func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	queued := len(s.queue)
	s.mu.Unlock()
	return SessionStats{ID: s.id, QueuedEvents: queued, ActivePointers: s.ActivePointers()}
}

func (s *Session) setMaxQueued(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	s.maxQueued = limit
	if limit > 0 && len(s.queue) > limit {
		drop := len(s.queue) - limit
		s.queue = append([]EventPacket(nil), s.queue[drop:]...)
	}
}

// enqueue serialises one normalized event and appends it to the retention
// queue, then notifies the sink.
func (s *Session) enqueue(callback protocol.Callback, ev pointer.Event) {
	payload, err := protocol.EncodeGestureEvent(protocol.GestureEvent{
		Callback:  callback,
		X:         ev.X,
		Y:         ev.Y,
		OffsetX:   ev.OffsetX,
		OffsetY:   ev.OffsetY,
		PointerID: int32(ev.PointerID),
		EventType: uint8(ev.Type),
		Device:    uint8(ev.Device),
		Button:    int8(ev.Button),
		Timestamp: ev.Timestamp,
	})
	if err != nil {
		debugLog.Printf("session %x: encode gesture event: %v", s.id[:4], err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.nextSequence++
	seq := s.nextSequence
	s.queue = append(s.queue, EventPacket{
		Sequence: seq,
		Payload:  payload,
		Message: protocol.Header{
			Version:   protocol.Version,
			Type:      protocol.MsgGestureEvent,
			Flags:     protocol.FlagChecksum,
			SessionID: s.id,
			Sequence:  seq,
		},
	})
	if s.maxQueued > 0 && len(s.queue) > s.maxQueued {
		drop := len(s.queue) - s.maxQueued
		s.queue = append([]EventPacket(nil), s.queue[drop:]...)
	}
	s.mu.Unlock()

	s.sink.HandleGestureEvent(s, callback, ev)
}

// emitter adapts the session to the pointer.Handler contract.
type emitter struct {
	session *Session
}

func (e *emitter) OnPointerDown(ev pointer.Event)  { e.session.enqueue(protocol.CallbackDown, ev) }
func (e *emitter) OnPointerAdd(ev pointer.Event)   { e.session.enqueue(protocol.CallbackAdd, ev) }
func (e *emitter) OnPointerUp(ev pointer.Event)    { e.session.enqueue(protocol.CallbackUp, ev) }
func (e *emitter) OnPointerRemove(ev pointer.Event) {
	e.session.enqueue(protocol.CallbackRemove, ev)
}
func (e *emitter) OnPointerMove(ev pointer.Event)  { e.session.enqueue(protocol.CallbackMove, ev) }
func (e *emitter) OnPointerEnter(ev pointer.Event) { e.session.enqueue(protocol.CallbackEnter, ev) }
func (e *emitter) OnPointerLeave(ev pointer.Event) { e.session.enqueue(protocol.CallbackLeave, ev) }
func (e *emitter) OnPointerOutOfBounds(ev pointer.Event) {
	e.session.enqueue(protocol.CallbackOutOfBounds, ev)
}
func (e *emitter) OnPointerCancel(ev pointer.Event) {
	e.session.enqueue(protocol.CallbackCancel, ev)
}
func (e *emitter) OnPointerMoveOver(ev pointer.Event) {
	e.session.enqueue(protocol.CallbackMoveOver, ev)
}
func (e *emitter) OnPointerMoveOut(ev pointer.Event) {
	e.session.enqueue(protocol.CallbackMoveOut, ev)
}

func rawKind(kind protocol.PointerKind) pointer.RawKind {
	switch kind {
	case protocol.PointerDown:
		return pointer.RawDown
	case protocol.PointerUp:
		return pointer.RawUp
	case protocol.PointerMove:
		return pointer.RawMove
	case protocol.PointerCancel:
		return pointer.RawCancel
	case protocol.PointerEnter:
		return pointer.RawEnter
	case protocol.PointerLeave:
		return pointer.RawLeave
	default:
		return pointer.RawLostCapture
	}
}
