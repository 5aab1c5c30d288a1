// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: server/sink.go
// Summary: Server-side observer hook for normalized events.
// Usage: Implemented by the trace recorder and by tests; nopSink is the default.

package server

import (
	"pointstream/pointer"
	"pointstream/protocol"
)

// GestureSink observes every normalized event a session produces, in the
// order it was produced. Sinks run synchronously on the session's event
// path and must return quickly.
type GestureSink interface {
	HandleGestureEvent(session *Session, callback protocol.Callback, ev pointer.Event)
}

// nopSink discards events when no sink is configured.
type nopSink struct{}

func (nopSink) HandleGestureEvent(*Session, protocol.Callback, pointer.Event) {}
