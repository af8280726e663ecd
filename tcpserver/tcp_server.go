// Package tcpserver runs a TCP accept loop and hands each connection to a
// Session running in its own goroutine.
package tcpserver

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/cyberinferno/netpong/idgenerator"
	"github.com/cyberinferno/netpong/logger"
	"github.com/cyberinferno/netpong/safemap"
)

var (
	// ErrAlreadyBound is returned by Start when the address is in use,
	// usually because another instance is already listening.
	ErrAlreadyBound = errors.New("address already bound")

	// ErrAlreadyRunning is returned by Start on a server that is running.
	ErrAlreadyRunning = errors.New("server already running")
)

// NewSessionFunc creates the Session for an accepted connection. It receives
// the assigned session ID and the accepted net.Conn.
type NewSessionFunc func(id uint32, conn net.Conn) Session

// TCPServer accepts connections and delegates each one to a session created
// by NewSession. Live sessions are indexed by ID until their Handle returns.
type TCPServer struct {
	Logger      logger.Logger
	Name        string
	Addr        string
	Listener    net.Listener
	Sessions    *safemap.SafeMap[uint32, Session]
	Running     atomic.Bool
	NewSession  NewSessionFunc
	IdGenerator *idgenerator.IdGenerator[uint32]

	wg sync.WaitGroup
}

// New creates a server that is ready to Start.
//
// Parameters:
//   - name: Name used in log messages
//   - addr: Listen address, e.g. ":5555" or "127.0.0.1:0"
//   - log: Logger for server events
//   - newSession: Factory for per-connection sessions
//
// Returns:
//   - A new TCPServer
func New(name, addr string, log logger.Logger, newSession NewSessionFunc) *TCPServer {
	return &TCPServer{
		Logger:      log,
		Name:        name,
		Addr:        addr,
		Sessions:    safemap.NewSafeMap[uint32, Session](),
		NewSession:  newSession,
		IdGenerator: idgenerator.NewIdGenerator[uint32](0),
	}
}

// Start binds Addr and begins the accept loop in a goroutine.
//
// Returns:
//   - ErrAlreadyRunning if the server is running
//   - An error wrapping ErrAlreadyBound if the address is in use
//   - Any other listen error
func (s *TCPServer) Start() error {
	if !s.Running.CompareAndSwap(false, true) {
		s.Logger.Error("server already running", logger.Field{Key: "server", Value: s.Name})
		return fmt.Errorf("server %s: %w", s.Name, ErrAlreadyRunning)
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		s.Running.Store(false)
		s.Logger.Error("server failed to start", logger.Field{Key: "server", Value: s.Name}, logger.Field{Key: "error", Value: err})
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("server %s on %s: %w: %w", s.Name, s.Addr, ErrAlreadyBound, err)
		}

		return fmt.Errorf("server %s failed to start: %w", s.Name, err)
	}

	s.Listener = ln

	s.Logger.Info(fmt.Sprintf("%s server started", s.Name), logger.Field{Key: "addr", Value: ln.Addr().String()})

	s.wg.Add(1)
	go s.AcceptLoop()

	return nil
}

// ListenAddr returns the bound listener address, or nil before Start.
func (s *TCPServer) ListenAddr() net.Addr {
	if s.Listener == nil {
		return nil
	}

	return s.Listener.Addr()
}

// Stop closes the listener, closes every live session and waits for the
// accept loop and all session handlers to return. Safe to call when the
// server is not running.
func (s *TCPServer) Stop() {
	if !s.Running.CompareAndSwap(true, false) {
		s.Logger.Info(fmt.Sprintf("%s server not running", s.Name))
		return
	}

	if s.Listener != nil {
		_ = s.Listener.Close()
	}

	s.Sessions.Range(func(_ uint32, session Session) bool {
		_ = session.Close()
		return true
	})

	s.wg.Wait()
	s.Logger.Info(fmt.Sprintf("%s server stopped", s.Name))
}

// AddSession stores a session under the given id.
func (s *TCPServer) AddSession(id uint32, session Session) {
	s.Sessions.Store(id, session)
}

// RemoveSession removes the session with the given id and reports whether
// this call removed it.
func (s *TCPServer) RemoveSession(id uint32) bool {
	_, ok := s.Sessions.LoadAndDelete(id)
	return ok
}

// GetSession returns the session for the given id, if present.
func (s *TCPServer) GetSession(id uint32) (Session, bool) {
	return s.Sessions.Load(id)
}

// SessionCount returns the number of live sessions.
func (s *TCPServer) SessionCount() int {
	return s.Sessions.Len()
}

// AcceptLoop accepts connections until the listener is closed. Each
// connection gets an ID from IdGenerator and a session from NewSession whose
// Handle runs in a new goroutine.
func (s *TCPServer) AcceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if !s.Running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			s.Logger.Error(fmt.Sprintf("%s server accept error", s.Name), logger.Field{Key: "error", Value: err})
			continue
		}

		id := s.IdGenerator.Id()
		session := s.NewSession(id, conn)
		s.AddSession(id, session)
		if !s.Running.Load() {
			_ = session.Close()
		}

		s.wg.Add(1)
		go s.serve(session)
	}
}

func (s *TCPServer) serve(session Session) {
	defer s.wg.Done()
	defer func() {
		s.RemoveSession(session.ID())
		_ = session.Close()
	}()

	session.Handle()
}
