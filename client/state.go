package client

import (
	"fmt"

	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/wire"
)

// State is everything one client simulates locally. Only the tick loop
// touches it.
type State struct {
	Side  game.Side
	World game.World
	Sync  uint64

	Over   bool
	Winner game.Side
}

// NewState builds the initial state for side on a width×height playfield.
func NewState(side game.Side, width, height int) *State {
	return &State{
		Side:  side,
		World: game.NewWorld(width, height),
	}
}

// Own returns the local player's paddle.
func (s *State) Own() *game.Paddle {
	return s.World.Paddle(s.Side)
}

// Opponent returns the peer's paddle as simulated locally.
func (s *State) Opponent() *game.Paddle {
	return s.World.Paddle(s.Side.Opponent())
}

// Outbound builds this tick's snapshot for the peer.
func (s *State) Outbound() wire.Snapshot {
	own := s.Own()
	opp := s.Opponent()
	ball := s.World.Ball

	return wire.Snapshot{
		Side:           s.Side,
		Direction:      own.Moving,
		SenderScore:    s.World.Score(s.Side),
		SyncCounter:    s.Sync,
		OpponentPaddle: wire.PaddleState{Y: opp.Y, Moving: opp.Moving},
		Ball: wire.BallState{
			X:  ball.X,
			Y:  ball.Y,
			VX: ball.VX,
			VY: ball.VY,
		},
		ReceiverScoreEcho: s.World.Score(s.Side.Opponent()),
	}
}

// Adopt applies what the peer is always authoritative about: its own paddle
// intent and its own score.
//
// Returns:
//   - An error wrapping ErrProtocol if the snapshot is not from the opponent's side
func (s *State) Adopt(in wire.Snapshot) error {
	want := s.Side.Opponent()
	if in.Side != want {
		return fmt.Errorf("%w: snapshot from side %s, expected %s", ErrProtocol, in.Side, want)
	}

	s.Opponent().Moving = in.Direction
	s.World.SetScore(in.Side, in.SenderScore)

	return nil
}
