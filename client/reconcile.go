package client

import (
	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/wire"
)

// Reconcile adopts the peer's whole view when the peer is ahead. If the
// inbound sync counter is greater than the local one, the ball, the local
// player's own paddle and own score are replaced by the peer's values and
// the local counter jumps to the peer's. Equal or older counters change
// nothing.
//
// Returns:
//   - true if s was replaced
func Reconcile(s *State, in wire.Snapshot) bool {
	if in.SyncCounter <= s.Sync {
		return false
	}

	s.World.Ball = game.Ball{
		Rect: game.Rect{X: in.Ball.X, Y: in.Ball.Y, W: game.BallSize, H: game.BallSize},
		VX:   in.Ball.VX,
		VY:   in.Ball.VY,
	}

	own := s.Own()
	own.Y = in.OpponentPaddle.Y
	own.Moving = in.OpponentPaddle.Moving

	s.World.SetScore(s.Side, in.ReceiverScoreEcho)
	s.Sync = in.SyncCounter

	return true
}
