package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/idgenerator"
	"github.com/cyberinferno/netpong/logger"
	"github.com/cyberinferno/netpong/metrics"
	"github.com/cyberinferno/netpong/perfmonitor"
	"github.com/cyberinferno/netpong/wire"
)

var (
	// ErrHubStopped is returned by hub calls made after Stop.
	ErrHubStopped = errors.New("hub stopped")

	// ErrUnknownConn is returned for a connection that never joined or
	// already left.
	ErrUnknownConn = errors.New("unknown connection")
)

// Assignment is the result of joining the hub.
type Assignment struct {
	Side    game.Side
	Session uuid.UUID
}

// Status is a point-in-time view of the hub.
type Status struct {
	Connections int
	Sessions    map[SessionState]int
	Resets      uint64
	NextSide    game.Side
}

type event struct {
	name string
	f    func()
	t0   time.Time
}

type binding struct {
	ep      Endpoint
	session *Session
	side    game.Side
}

// registry is all pairing state. A drain replaces it wholesale.
type registry struct {
	cycle    *PairingCycle
	conns    map[uint32]*binding
	sessions map[uuid.UUID]*Session
}

// Hub owns every connection, pairing cycle and session. All mutations run
// on one goroutine; other goroutines reach it through blocking calls.
type Hub struct {
	log     logger.Logger
	metrics *metrics.Metrics
	rec     *recorder
	seq     *idgenerator.IdGenerator[uint64]
	now     func() time.Time

	eventch  chan *event
	stopch   chan struct{}
	donech   chan struct{}
	stopOnce sync.Once

	// hub goroutine only
	reg    *registry
	resets uint64
}

// NewHub creates a hub. Run must be called before any other method.
//
// Parameters:
//   - log: Logger for pairing events
//   - m: Relay metrics
//   - rec: Session recorder; nil disables session records
//   - queue: Capacity of the event channel
func NewHub(log logger.Logger, m *metrics.Metrics, rec *recorder, queue int) *Hub {
	h := &Hub{
		log:     log,
		metrics: m,
		rec:     rec,
		seq:     idgenerator.NewIdGenerator[uint64](0),
		now:     time.Now,
		eventch: make(chan *event, queue),
		stopch:  make(chan struct{}),
		donech:  make(chan struct{}),
	}
	h.reg = h.newRegistry()

	return h
}

// Run processes events until Stop is called.
func (h *Hub) Run() {
	defer close(h.donech)

	for {
		select {
		case evt := <-h.eventch:
			h.handle(evt)
		case <-h.stopch:
			return
		}
	}
}

// Stop ends Run and waits for it to return. Calls pending at that moment
// fail with ErrHubStopped.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopch) })
	<-h.donech
}

// hub goroutine
func (h *Hub) handle(evt *event) {
	pm := perfmonitor.NewPerformanceMonitor()
	pm.StartAt(evt.t0)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error("hub event recovered from panic",
					logger.Field{Key: "event", Value: evt.name},
					logger.Field{Key: "panic", Value: fmt.Sprint(rec)})
			}
		}()
		evt.f()
	}()

	pm.Stop()
	h.metrics.HubEventDuration.WithLabelValues(evt.name).Observe(pm.Elapsed().Seconds())
}

// any goroutine
func (h *Hub) call(ctx context.Context, name string, f func()) error {
	done := make(chan struct{})
	evt := &event{
		name: name,
		f: func() {
			defer close(done)
			f()
		},
		t0: time.Now(),
	}

	select {
	case h.eventch <- evt:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopch:
		return ErrHubStopped
	}

	select {
	case <-done:
		return nil
	case <-h.donech:
		// Run may have finished the event just before exiting.
		select {
		case <-done:
			return nil
		default:
			return ErrHubStopped
		}
	}
}

// Join registers ep and assigns it the next side of the current pairing
// cycle. The second arrival completes the cycle and a new one begins.
func (h *Hub) Join(ctx context.Context, ep Endpoint) (Assignment, error) {
	var a Assignment
	var err error

	callErr := h.call(ctx, "join", func() {
		if _, exists := h.reg.conns[ep.ID()]; exists {
			err = fmt.Errorf("connection %d already joined", ep.ID())
			return
		}

		now := h.now()
		session := h.reg.cycle.Session()
		side, complete := h.reg.cycle.Assign(ep, now)

		h.reg.conns[ep.ID()] = &binding{ep: ep, session: session, side: side}
		h.reg.sessions[session.ID] = session
		if complete {
			h.reg.cycle = newPairingCycle(newSession(h.seq.Id(), now))
		}

		h.metrics.ConnectionsTotal.Inc()
		h.metrics.ConnectionsActive.Set(float64(len(h.reg.conns)))
		h.record(session)

		h.log.Info("connection joined",
			logger.Field{Key: "conn", Value: ep.ID()},
			logger.Field{Key: "remote", Value: ep.RemoteAddr()},
			logger.Field{Key: "side", Value: side.String()},
			logger.Field{Key: "session", Value: session.ID.String()})

		a = Assignment{Side: side, Session: session.ID}
	})
	if callErr != nil {
		return Assignment{}, callErr
	}

	return a, err
}

// Ready marks the connection ready. When both members of a connected session
// are ready the hub sends "start" to both and the session becomes active;
// no snapshot can be relayed for the session before that.
func (h *Hub) Ready(ctx context.Context, id uint32) error {
	var err error

	callErr := h.call(ctx, "ready", func() {
		b, ok := h.reg.conns[id]
		if !ok {
			err = fmt.Errorf("ready from connection %d: %w", id, ErrUnknownConn)
			return
		}

		s := b.session
		if !s.markReady(b.side) || s.State != StateBothConnected {
			return
		}

		now := h.now()
		s.advance(StateBothReady, now)
		h.start(s)
		s.advance(StateActive, now)

		h.metrics.SessionsStarted.Inc()
		h.updateSessionGauge()
		h.record(s)

		h.log.Info("session started",
			logger.Field{Key: "session", Value: s.ID.String()},
			logger.Field{Key: "seq", Value: s.Seq})
	})
	if callErr != nil {
		return callErr
	}

	return err
}

// hub goroutine
func (h *Hub) start(s *Session) {
	payload := []byte(wire.TokenStart)
	for _, side := range []game.Side{game.SideLeft, game.SideRight} {
		ep := s.Member(side)
		if ep == nil {
			continue
		}

		if err := ep.Send(payload); err != nil {
			h.log.Warn("failed to send start",
				logger.Field{Key: "conn", Value: ep.ID()},
				logger.Field{Key: "session", Value: s.ID.String()},
				logger.Field{Key: "error", Value: err})
		}
	}
}

// Peer returns the other member of the connection's session while that
// session is active, and counts the frame against the session.
func (h *Hub) Peer(ctx context.Context, id uint32) (Endpoint, bool, error) {
	var peer Endpoint
	var err error

	callErr := h.call(ctx, "peer", func() {
		b, ok := h.reg.conns[id]
		if !ok {
			err = fmt.Errorf("peer of connection %d: %w", id, ErrUnknownConn)
			return
		}

		if b.session.State != StateActive {
			return
		}

		peer = b.session.Member(b.side.Opponent())
		if peer != nil {
			b.session.Frames++
		}
	})
	if callErr != nil {
		return nil, false, callErr
	}

	return peer, peer != nil, err
}

// Leave removes the connection. Its session is terminated and the remaining
// peer is abandoned without notice. If the registry drains to zero
// connections all pairing state is replaced and the next arrival is Left.
func (h *Hub) Leave(ctx context.Context, id uint32) error {
	return h.call(ctx, "leave", func() {
		b, ok := h.reg.conns[id]
		if !ok {
			return
		}

		delete(h.reg.conns, id)
		now := h.now()
		s := b.session
		s.detach(b.side)

		if s.advance(StateTerminated, now) {
			if !s.StartedAt.IsZero() {
				h.metrics.SessionDuration.Observe(now.Sub(s.StartedAt).Seconds())
			}

			h.record(s)
		}

		if h.reg.cycle.Session() == s {
			// the open cycle lost its only member
			h.reg.cycle = newPairingCycle(newSession(h.seq.Id(), now))
		}

		if s.live == 0 {
			delete(h.reg.sessions, s.ID)
		}

		h.log.Info("connection left",
			logger.Field{Key: "conn", Value: id},
			logger.Field{Key: "side", Value: b.side.String()},
			logger.Field{Key: "session", Value: s.ID.String()})

		h.metrics.ConnectionsActive.Set(float64(len(h.reg.conns)))
		h.updateSessionGauge()

		if len(h.reg.conns) == 0 {
			h.reset()
		}
	})
}

// hub goroutine
func (h *Hub) reset() {
	h.reg = h.newRegistry()
	h.resets++
	h.metrics.RegistryResets.Inc()
	h.updateSessionGauge()
	h.log.Info("registry drained, pairing state reset", logger.Field{Key: "resets", Value: h.resets})
}

// Status returns a point-in-time view of the hub.
func (h *Hub) Status(ctx context.Context) (Status, error) {
	var st Status

	err := h.call(ctx, "status", func() {
		st = Status{
			Connections: len(h.reg.conns),
			Sessions:    make(map[SessionState]int),
			Resets:      h.resets,
			NextSide:    h.reg.cycle.NextSide(),
		}

		for _, s := range h.reg.sessions {
			st.Sessions[s.State]++
		}
	})

	return st, err
}

// hub goroutine
func (h *Hub) newRegistry() *registry {
	return &registry{
		cycle:    newPairingCycle(newSession(h.seq.Id(), h.now())),
		conns:    make(map[uint32]*binding),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// hub goroutine
func (h *Hub) updateSessionGauge() {
	active := 0
	for _, s := range h.reg.sessions {
		if s.State == StateActive {
			active++
		}
	}

	h.metrics.SessionsActive.Set(float64(active))
}

// hub goroutine
func (h *Hub) record(s *Session) {
	if h.rec != nil {
		h.rec.Record(s.Record())
	}
}
