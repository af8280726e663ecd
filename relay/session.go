package relay

import (
	"time"

	"github.com/google/uuid"

	"github.com/cyberinferno/netpong/game"
)

// Endpoint is the hub's view of a connection.
type Endpoint interface {
	ID() uint32
	RemoteAddr() string
	Send(payload []byte) error
}

// SessionState is the lifecycle of a pairing.
type SessionState uint8

const (
	StateAwaitingPeers SessionState = iota
	StateBothConnected
	StateBothReady
	StateActive
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingPeers:
		return "awaiting_peers"
	case StateBothConnected:
		return "both_connected"
	case StateBothReady:
		return "both_ready"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session pairs exactly two connections. It is owned by the hub goroutine
// and never touched from anywhere else.
type Session struct {
	ID        uuid.UUID
	Seq       uint64
	State     SessionState
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time
	Frames    uint64

	members [3]Endpoint
	addrs   [3]string
	ready   [3]bool
	live    int
}

func newSession(seq uint64, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Seq:       seq,
		State:     StateAwaitingPeers,
		CreatedAt: now,
	}
}

// Member returns the endpoint holding side, or nil.
func (s *Session) Member(side game.Side) Endpoint {
	if !side.Valid() {
		return nil
	}

	return s.members[side]
}

// Ready reports whether side has sent its readiness token.
func (s *Session) Ready(side game.Side) bool {
	return side.Valid() && s.ready[side]
}

// advance moves the session to next. Only the next state in order or
// Terminated are accepted; anything else is ignored and reported false.
func (s *Session) advance(next SessionState, now time.Time) bool {
	if s.State == StateTerminated {
		return false
	}

	if next != StateTerminated && next != s.State+1 {
		return false
	}

	s.State = next
	switch next {
	case StateActive:
		s.StartedAt = now
	case StateTerminated:
		s.EndedAt = now
	}

	return true
}

func (s *Session) attach(side game.Side, ep Endpoint) {
	s.members[side] = ep
	s.addrs[side] = ep.RemoteAddr()
	s.live++
}

func (s *Session) detach(side game.Side) {
	s.members[side] = nil
	s.live--
}

// markReady records readiness for side and reports whether both sides are
// now ready.
func (s *Session) markReady(side game.Side) bool {
	s.ready[side] = true
	return s.ready[game.SideLeft] && s.ready[game.SideRight]
}

// Record returns the persisted form of the session.
func (s *Session) Record() SessionRecord {
	return SessionRecord{
		ID:        s.ID.String(),
		Seq:       s.Seq,
		Left:      s.addrs[game.SideLeft],
		Right:     s.addrs[game.SideRight],
		State:     s.State.String(),
		CreatedAt: s.CreatedAt,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Frames:    s.Frames,
	}
}

// SessionRecord is what the relay keeps about a session after the fact.
type SessionRecord struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Left      string    `json:"left"`
	Right     string    `json:"right"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitzero"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
	Frames    uint64    `json:"frames"`
}

// RecordKey is the store key of a session record.
func RecordKey(id string) string {
	return "session:" + id
}

// PairingCycle fills one session with a Left and then a Right connection.
// A new cycle is built as soon as the previous one completes.
type PairingCycle struct {
	session *Session
}

func newPairingCycle(session *Session) *PairingCycle {
	return &PairingCycle{session: session}
}

// Session returns the session being filled.
func (c *PairingCycle) Session() *Session {
	return c.session
}

// NextSide is the side the next arrival will get.
func (c *PairingCycle) NextSide() game.Side {
	if c.session.members[game.SideLeft] == nil {
		return game.SideLeft
	}

	return game.SideRight
}

// Assign gives ep the next unfilled side and reports whether the cycle is
// now complete.
func (c *PairingCycle) Assign(ep Endpoint, now time.Time) (game.Side, bool) {
	side := c.NextSide()
	c.session.attach(side, ep)

	if side == game.SideRight {
		c.session.advance(StateBothConnected, now)
		return side, true
	}

	return side, false
}
