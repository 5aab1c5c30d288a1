// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: server/target.go
// Summary: Per-session target state: reported bounds, kind, and capture emulation.
// Usage: Owned by one Session; implements pointer.Target for its Manager.
// Notes: Mirrors the platform capture contract, including silent acquisition failure.

package server

import "pointstream/pointer"

// Target is the server-side stand-in for the managed element. The input
// surface reports its kind and bounds via TargetUpdate frames; capture is
// emulated faithfully: acquisition only succeeds while the pointer is in an
// active-buttons state, and refusal is silent. That makes the Manager's
// retry-on-move path exercise real behaviour end to end.
type Target struct {
	kind          string
	bounds        pointer.Rect
	captured      map[pointer.PointerID]bool
	activeButtons map[pointer.PointerID]bool
}

// NewTarget returns an empty target with no bounds and nothing captured.
func NewTarget() *Target {
	return &Target{
		captured:      make(map[pointer.PointerID]bool),
		activeButtons: make(map[pointer.PointerID]bool),
	}
}

func (t *Target) Bounds() pointer.Rect { return t.bounds }
func (t *Target) Kind() string         { return t.kind }

func (t *Target) HasCapture(id pointer.PointerID) bool {
	return t.captured[id]
}

// AcquireCapture takes exclusive routing for the pointer, or silently does
// nothing when the pointer has no pressed buttons at request time.
func (t *Target) AcquireCapture(id pointer.PointerID) {
	if !t.activeButtons[id] {
		return
	}
	t.captured[id] = true
}

func (t *Target) ReleaseCapture(id pointer.PointerID) {
	delete(t.captured, id)
}

// Apply updates kind and bounds from a surface report.
func (t *Target) Apply(kind string, bounds pointer.Rect) {
	t.kind = kind
	t.bounds = bounds
}

// NoteButtons records the raw buttons bitmask delivered alongside a native
// notification. A non-zero mask marks the pointer as active for capture.
func (t *Target) NoteButtons(id pointer.PointerID, buttons uint32) {
	if buttons != 0 {
		t.activeButtons[id] = true
	} else {
		delete(t.activeButtons, id)
	}
}
