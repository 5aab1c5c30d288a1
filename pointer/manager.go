// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pointer/manager.go
// Summary: Stateful pointer tracking: pressed set, bounds membership, capture retry.
// Usage: One Manager per target element; feed it raw notifications via Handle.
// Notes: Single-threaded by contract; Reset is safe to call reentrantly from a callback.

package pointer

// Manager turns a noisy native pointer stream into the clean event sequence
// expected by gesture recognizers. It owns all per-target tracking state:
// the active-pointer counter, the pressed set, the ordered in-bounds list,
// and the preceding move coordinate used for stylus deduplication.
//
// Manager is not safe for concurrent use. It is purely reactive: every
// Handle call runs to completion and performs at most one handler callback.
type Manager struct {
	target  Target
	handler Handler
	exclude map[string]struct{}

	active   int
	tracked  map[PointerID]struct{}
	inBounds []PointerID

	lastMoveX float64
	lastMoveY float64
	sawMove   bool
}

// NewManager binds a Manager to one target. Capture is never manipulated for
// targets whose Kind appears in exclude.
func NewManager(target Target, handler Handler, exclude []string) *Manager {
	if handler == nil {
		handler = NopHandler{}
	}
	ex := make(map[string]struct{}, len(exclude))
	for _, kind := range exclude {
		ex[kind] = struct{}{}
	}
	return &Manager{
		target:  target,
		handler: handler,
		exclude: ex,
		tracked: make(map[PointerID]struct{}),
	}
}

// Handle processes one native notification. Touch devices are filtered out
// before any state is touched; a separate collaborator owns touch.
func (m *Manager) Handle(raw RawEvent) {
	device := ClassifyDevice(raw.PointerType)
	if device == DeviceTouch {
		return
	}
	switch raw.Kind {
	case RawDown:
		m.handleDown(raw, device)
	case RawUp:
		m.handleUp(raw, device)
	case RawMove:
		m.handleMove(raw, device)
	case RawCancel:
		m.handleCancel(raw, device)
	case RawEnter:
		// Native hover enter; the Enter computed in handleMove is only
		// reliable while a pointer is down.
		m.handler.OnPointerMoveOver(m.normalize(raw, device, TypeEnter))
	case RawLeave:
		m.handler.OnPointerMoveOut(m.normalize(raw, device, TypeLeave))
	case RawLostCapture:
		m.handleLostCapture(raw, device)
	}
}

// Reset unconditionally clears the pressed set and the active-pointer
// counter. It may be called at any time, including from within a handler
// callback mid-gesture, and is idempotent.
func (m *Manager) Reset() {
	m.active = 0
	clear(m.tracked)
}

// ActivePointers returns the number of currently pressed pointers.
func (m *Manager) ActivePointers() int {
	return m.active
}

// Tracked reports whether the pointer is currently in the pressed set.
func (m *Manager) Tracked(id PointerID) bool {
	_, ok := m.tracked[id]
	return ok
}

// InBounds returns the ordered ids currently inside the target's bounds.
func (m *Manager) InBounds() []PointerID {
	out := make([]PointerID, len(m.inBounds))
	copy(out, m.inBounds)
	return out
}

func (m *Manager) handleDown(raw RawEvent, device DeviceKind) {
	if !m.target.Bounds().Contains(raw.X, raw.Y) {
		return
	}
	if !m.excluded() {
		// Acquisition may fail silently; handleMove retries until it sticks.
		m.target.AcquireCapture(raw.PointerID)
	}
	m.active++
	m.tracked[raw.PointerID] = struct{}{}
	m.addInBounds(raw.PointerID)
	if m.active == 1 {
		m.handler.OnPointerDown(m.normalize(raw, device, TypeDown))
	} else {
		m.handler.OnPointerAdd(m.normalize(raw, device, TypeAdditionalDown))
	}
}

func (m *Manager) handleUp(raw RawEvent, device DeviceKind) {
	if m.active == 0 {
		// An external reset may have cleared state while pointers were still
		// physically down; absorbing the stray up keeps the counter sane.
		return
	}
	m.active--
	delete(m.tracked, raw.PointerID)
	m.removeInBounds(raw.PointerID)
	if !m.excluded() {
		m.target.ReleaseCapture(raw.PointerID)
	}
	if m.active == 0 {
		m.handler.OnPointerUp(m.normalize(raw, device, TypeUp))
	} else {
		m.handler.OnPointerRemove(m.normalize(raw, device, TypeAdditionalUp))
	}
}

func (m *Manager) handleMove(raw RawEvent, device DeviceKind) {
	// Pressure-sensitive devices report moves with unchanged coordinates;
	// suppress a stylus move that repeats the immediately preceding move
	// exactly. The preceding-move slot is kept for every device so a mouse
	// move in between re-arms the filter, but only stylus moves are ever
	// dropped.
	if device == DeviceStylus && m.sawMove && raw.X == m.lastMoveX && raw.Y == m.lastMoveY {
		return
	}
	m.lastMoveX, m.lastMoveY, m.sawMove = raw.X, raw.Y, true

	if _, pressed := m.tracked[raw.PointerID]; pressed && !m.excluded() && !m.target.HasCapture(raw.PointerID) {
		m.target.AcquireCapture(raw.PointerID)
	}

	inside := m.target.Bounds().Contains(raw.X, raw.Y)
	was := m.isInBounds(raw.PointerID)
	switch {
	case !was && inside:
		m.addInBounds(raw.PointerID)
		m.handler.OnPointerEnter(m.normalize(raw, device, TypeEnter))
	case was && inside:
		m.handler.OnPointerMove(m.normalize(raw, device, TypeMove))
	case was && !inside:
		m.removeInBounds(raw.PointerID)
		m.handler.OnPointerLeave(m.normalize(raw, device, TypeLeave))
	default:
		m.handler.OnPointerOutOfBounds(m.normalize(raw, device, TypeOutOfBounds))
	}
}

func (m *Manager) handleCancel(raw RawEvent, device DeviceKind) {
	m.active = 0
	clear(m.tracked)
	m.removeInBounds(raw.PointerID)
	m.handler.OnPointerCancel(m.normalize(raw, device, TypeCancel))
}

func (m *Manager) handleLostCapture(raw RawEvent, device DeviceKind) {
	if _, ok := m.tracked[raw.PointerID]; !ok {
		return
	}
	m.active = 0
	clear(m.tracked)
	m.handler.OnPointerCancel(m.normalize(raw, device, TypeCancel))
}

func (m *Manager) excluded() bool {
	_, ok := m.exclude[m.target.Kind()]
	return ok
}

func (m *Manager) normalize(raw RawEvent, device DeviceKind, typ EventType) Event {
	return Event{
		X:         raw.X,
		Y:         raw.Y,
		OffsetX:   raw.OffsetX,
		OffsetY:   raw.OffsetY,
		PointerID: raw.PointerID,
		Type:      typ,
		Device:    device,
		Button:    ClassifyButton(raw.Button),
		Timestamp: raw.Timestamp,
	}
}

func (m *Manager) isInBounds(id PointerID) bool {
	for _, have := range m.inBounds {
		if have == id {
			return true
		}
	}
	return false
}

func (m *Manager) addInBounds(id PointerID) {
	if m.isInBounds(id) {
		return
	}
	m.inBounds = append(m.inBounds, id)
}

func (m *Manager) removeInBounds(id PointerID) {
	for i, have := range m.inBounds {
		if have == id {
			m.inBounds = append(m.inBounds[:i], m.inBounds[i+1:]...)
			return
		}
	}
}
