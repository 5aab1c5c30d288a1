// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pointer/handler.go
// Summary: Outbound contract towards the gesture layer and the capture primitive.

package pointer

// Handler receives normalized events. A Manager invokes exactly one method
// per processed native notification.
type Handler interface {
	OnPointerDown(Event)
	OnPointerAdd(Event)
	OnPointerUp(Event)
	OnPointerRemove(Event)
	OnPointerMove(Event)
	OnPointerEnter(Event)
	OnPointerLeave(Event)
	OnPointerOutOfBounds(Event)
	OnPointerCancel(Event)
	OnPointerMoveOver(Event)
	OnPointerMoveOut(Event)
}

// NopHandler discards every event. Embed it to implement only a subset of
// the Handler callbacks.
type NopHandler struct{}

func (NopHandler) OnPointerDown(Event)        {}
func (NopHandler) OnPointerAdd(Event)         {}
func (NopHandler) OnPointerUp(Event)          {}
func (NopHandler) OnPointerRemove(Event)      {}
func (NopHandler) OnPointerMove(Event)        {}
func (NopHandler) OnPointerEnter(Event)       {}
func (NopHandler) OnPointerLeave(Event)       {}
func (NopHandler) OnPointerOutOfBounds(Event) {}
func (NopHandler) OnPointerCancel(Event)      {}
func (NopHandler) OnPointerMoveOver(Event)    {}
func (NopHandler) OnPointerMoveOut(Event)     {}

// Target is the element a Manager is bound to. Bounds and Kind describe the
// current rectangle and the target-kind identifier matched against the
// exclude set. The capture primitive follows the platform contract:
// AcquireCapture may fail silently, so callers must treat HasCapture as the
// only source of truth.
type Target interface {
	Bounds() Rect
	Kind() string
	HasCapture(PointerID) bool
	AcquireCapture(PointerID)
	ReleaseCapture(PointerID)
}
