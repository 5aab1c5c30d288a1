// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: server/manager.go
// Summary: Session registry for the normalization server.
// Usage: Shared by the listener and the trace/config wiring in cmd.

package server

import (
	"crypto/rand"
	"errors"
	"sync"
)

var ErrSessionNotFound = errors.New("server: session not found")

// Manager tracks active sessions and coordinates creation/lookup.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[[16]byte]*Session
	maxQueued  int
	exclude    []string
	sink       GestureSink
	serverName string
}

func NewManager() *Manager {
	return &Manager{
		sessions:   make(map[[16]byte]*Session),
		maxQueued:  512,
		sink:       nopSink{},
		serverName: "pointstream-server",
	}
}

// SetServerName sets the name announced in the handshake's Welcome frame.
func (m *Manager) SetServerName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name != "" {
		m.serverName = name
	}
}

// ServerName returns the name announced during the handshake.
func (m *Manager) ServerName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.serverName
}

// SetExcludedKinds configures the target kinds for which capture must never
// be manipulated. Applies to sessions created afterwards.
func (m *Manager) SetExcludedKinds(kinds []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exclude = append([]string(nil), kinds...)
}

// SetSink installs an observer for normalized events. Applies to sessions
// created afterwards.
func (m *Manager) SetSink(sink GestureSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sink == nil {
		sink = nopSink{}
	}
	m.sink = sink
}

func (m *Manager) NewSession() (*Session, error) {
	var id [16]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	session := NewSession(id, m.maxQueued, m.exclude, m.sink)
	m.sessions[id] = session
	return session, nil
}

func (m *Manager) Lookup(id [16]byte) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// SetRetentionLimit bounds each session's outbound queue.
func (m *Manager) SetRetentionLimit(limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	m.maxQueued = limit
	for _, session := range m.sessions {
		session.setMaxQueued(limit)
	}
}

func (m *Manager) Close(id [16]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		session.Close()
		delete(m.sessions, id)
	}
}

func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) SessionStats() []SessionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make([]SessionStats, 0, len(m.sessions))
	for _, session := range m.sessions {
		stats = append(stats, session.Stats())
	}
	return stats
}
