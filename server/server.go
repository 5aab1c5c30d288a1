package server

import (
	"context"
	"log"
	"net"
	"os"
	"sync"
)

// Server listens on a Unix domain socket and manages sessions.
type Server struct {
	addr     string
	manager  *Manager
	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
}

func NewServer(addr string, manager *Manager) *Server {
	if manager == nil {
		manager = NewManager()
	}
	return &Server{addr: addr, manager: manager, quit: make(chan struct{})}
}

func (s *Server) Manager() *Manager {
	return s.manager
}

func (s *Server) Start() error {
	if err := os.RemoveAll(s.addr); err != nil {
		return err
	}
	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("server: accept error: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	session, err := handleHandshake(conn, s.manager)
	if err != nil {
		debugLog.Printf("server: handshake failed: %v", err)
		return
	}
	id := session.ID()
	debugLog.Printf("server: session %x attached", id[:4])
	if err := newConnection(conn, session).serve(); err != nil {
		debugLog.Printf("server: session %x closed: %v", id[:4], err)
	}
}

// Stop closes the listener and waits for in-flight connections, honouring
// the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	close(s.quit)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
