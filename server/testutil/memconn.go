// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: server/testutil/memconn.go
// Summary: In-memory net.Conn pair for deterministic server tests.
// Usage: Imported by server tests when they need a socket-free transport.
// Notes: Not shipped with production binaries; only used in test code.

package testutil

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// MemConn implements net.Conn over buffered channels so tests can exercise
// the framed protocol without OS sockets. Reads honour deadlines; writes
// block only when the peer's buffer is full.
type MemConn struct {
	readCh  <-chan []byte
	writeCh chan<- []byte

	mu       sync.Mutex
	closed   bool
	pending  []byte
	deadline time.Time
}

// NewMemPipe returns two connected endpoints sharing mirrored buffers.
func NewMemPipe(buffer int) (*MemConn, *MemConn) {
	if buffer <= 0 {
		buffer = 16
	}
	a := make(chan []byte, buffer)
	b := make(chan []byte, buffer)
	return &MemConn{readCh: a, writeCh: b}, &MemConn{readCh: b, writeCh: a}
}

func (m *MemConn) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, io.EOF
	}
	if len(m.pending) > 0 {
		n := copy(p, m.pending)
		m.pending = m.pending[n:]
		m.mu.Unlock()
		return n, nil
	}
	deadline := m.deadline
	m.mu.Unlock()

	var timer <-chan time.Time
	if !deadline.IsZero() {
		timer = time.After(time.Until(deadline))
	}

	select {
	case data, ok := <-m.readCh:
		if !ok {
			return 0, io.EOF
		}
		n := copy(p, data)
		if n < len(data) {
			m.mu.Lock()
			m.pending = append(m.pending, data[n:]...)
			m.mu.Unlock()
		}
		return n, nil
	case <-timer:
		return 0, timeoutError{}
	}
}

func (m *MemConn) Write(p []byte) (int, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return 0, errors.New("memconn: write on closed connection")
	}
	data := append([]byte(nil), p...)
	m.writeCh <- data
	return len(p), nil
}

func (m *MemConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemConn) LocalAddr() net.Addr  { return memAddr{} }
func (m *MemConn) RemoteAddr() net.Addr { return memAddr{} }

func (m *MemConn) SetDeadline(t time.Time) error {
	return m.SetReadDeadline(t)
}

func (m *MemConn) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = t
	return nil
}

func (m *MemConn) SetWriteDeadline(time.Time) error { return nil }

type memAddr struct{}

func (memAddr) Network() string { return "mem" }
func (memAddr) String() string  { return "mem" }

// timeoutError satisfies net.Error so callers can retry on deadline.
type timeoutError struct{}

func (timeoutError) Error() string   { return "memconn: read deadline reached" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
