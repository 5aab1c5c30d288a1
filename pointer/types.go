// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pointer/types.go
// Summary: Event model shared by the normalization engine and its transports.

package pointer

// PointerID is the platform-assigned identifier for one physical pointer
// contact. It is unique only while the pointer is active.
type PointerID int32

// DeviceKind is the semantic classification of the originating device.
type DeviceKind uint8

const (
	DeviceMouse DeviceKind = iota
	DeviceTouch
	DeviceStylus
	DeviceOther
)

func (d DeviceKind) String() string {
	switch d {
	case DeviceMouse:
		return "mouse"
	case DeviceTouch:
		return "touch"
	case DeviceStylus:
		return "stylus"
	default:
		return "other"
	}
}

// Button is the semantic mouse button. ButtonNone marks events whose native
// button code falls outside the known table.
type Button int8

const (
	ButtonNone   Button = -1
	ButtonLeft   Button = 0
	ButtonMiddle Button = 1
	ButtonRight  Button = 2
	Button4      Button = 3
	Button5      Button = 4
)

// EventType identifies the normalized event emitted to the gesture layer.
type EventType uint8

const (
	TypeDown EventType = iota
	TypeAdditionalDown
	TypeUp
	TypeAdditionalUp
	TypeMove
	TypeEnter
	TypeLeave
	TypeOutOfBounds
	TypeCancel
)

func (t EventType) String() string {
	switch t {
	case TypeDown:
		return "down"
	case TypeAdditionalDown:
		return "additional-down"
	case TypeUp:
		return "up"
	case TypeAdditionalUp:
		return "additional-up"
	case TypeMove:
		return "move"
	case TypeEnter:
		return "enter"
	case TypeLeave:
		return "leave"
	case TypeOutOfBounds:
		return "out-of-bounds"
	case TypeCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// RawKind identifies the native notification being fed into a Manager.
type RawKind uint8

const (
	RawDown RawKind = iota
	RawUp
	RawMove
	RawCancel
	RawEnter
	RawLeave
	RawLostCapture
)

// RawEvent is one native pointer notification as delivered by the input
// surface, before classification and normalization.
type RawEvent struct {
	Kind        RawKind
	X           float64
	Y           float64
	OffsetX     float64
	OffsetY     float64
	PointerID   PointerID
	PointerType string
	Button      int
	Buttons     uint32
	Timestamp   float64
}

// Event is the normalized, cross-device representation handed to the
// gesture layer. Exactly one Event is produced per processed notification.
type Event struct {
	X         float64
	Y         float64
	OffsetX   float64
	OffsetY   float64
	PointerID PointerID
	Type      EventType
	Device    DeviceKind
	Button    Button
	Timestamp float64
}

// Rect is the target's spatial rectangle used for inside/outside
// classification. Both edges are inclusive.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Contains reports whether the coordinate lies within the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}
