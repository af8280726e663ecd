// Package relay implements the pairing and relay server: it assigns sides to
// arriving connections, gates each session's start on both sides being ready
// and then forwards snapshots between the two members of a session.
package relay

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cyberinferno/netpong/cacher"
	"github.com/cyberinferno/netpong/config"
	"github.com/cyberinferno/netpong/logger"
	"github.com/cyberinferno/netpong/metrics"
	"github.com/cyberinferno/netpong/tcpserver"
)

// Server ties the TCP accept loop, the hub and the session recorder together.
type Server struct {
	log     logger.Logger
	metrics *metrics.Metrics
	store   cacher.Cacher[SessionRecord]
	rec     *recorder
	hub     *Hub
	tcp     *tcpserver.TCPServer
	started atomic.Bool
}

// NewServer builds a relay server from cfg.
//
// Parameters:
//   - cfg: Validated server configuration
//   - log: Process logger
//   - m: Relay metrics
//   - store: Session record store; nil disables records
//
// Returns:
//   - A Server ready to Start
func NewServer(cfg config.Server, log logger.Logger, m *metrics.Metrics, store cacher.Cacher[SessionRecord]) *Server {
	s := &Server{
		log:     log,
		metrics: m,
		store:   store,
	}

	if store != nil {
		s.rec = newRecorder(log.With(logger.Field{Key: "component", Value: "recorder"}), store, cfg.Store.RecordTTL)
	}

	s.hub = NewHub(log.With(logger.Field{Key: "component", Value: "hub"}), m, s.rec, cfg.EventQueue)

	settings := connSettings{
		width:            cfg.Width,
		height:           cfg.Height,
		idleTimeout:      cfg.IdleTimeout,
		handshakeTimeout: cfg.HandshakeTimeout,
		writeTimeout:     cfg.WriteTimeout,
		maxFrameSize:     cfg.MaxFrameSize,
	}

	s.tcp = tcpserver.New("relay", cfg.Addr, log, func(id uint32, conn net.Conn) tcpserver.Session {
		return newConn(id, conn, s.hub, log, m, settings)
	})

	return s
}

// Start runs the hub and begins accepting connections. A Server can be
// started once.
//
// Returns:
//   - tcpserver.ErrAlreadyBound if the address is in use, or another start error
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("relay: %w", tcpserver.ErrAlreadyRunning)
	}

	go s.hub.Run()

	if err := s.tcp.Start(); err != nil {
		s.hub.Stop()
		s.closeRecorder()
		return err
	}

	return nil
}

// Stop closes every connection, waits for their workers, then stops the hub
// and flushes pending session records.
func (s *Server) Stop() {
	if !s.started.Load() {
		return
	}

	s.tcp.Stop()
	s.hub.Stop()
	s.closeRecorder()
}

func (s *Server) closeRecorder() {
	if s.rec != nil {
		s.rec.Close()
	}
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.tcp.ListenAddr()
}

// Status returns a point-in-time view of pairing state.
func (s *Server) Status(ctx context.Context) (Status, error) {
	return s.hub.Status(ctx)
}

// Record returns the stored record of a session.
func (s *Server) Record(ctx context.Context, id uuid.UUID) (SessionRecord, error) {
	if s.store == nil {
		return SessionRecord{}, cacher.ErrNotFound
	}

	return s.store.Get(ctx, RecordKey(id.String()))
}
