package client

import (
	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/logger"
)

// Input reports the local player's current paddle intent.
type Input interface {
	Direction() game.Direction
}

// InputFunc adapts a function to Input.
type InputFunc func() game.Direction

func (f InputFunc) Direction() game.Direction {
	return f()
}

// Observer is told about every completed tick and the end of the game.
// Rendering and audio hook in here.
type Observer interface {
	OnTick(state State, events game.Events, reconciled bool)
	OnGameOver(winner game.Side, state State)
}

type nopObserver struct{}

func (nopObserver) OnTick(State, game.Events, bool) {}

func (nopObserver) OnGameOver(game.Side, State) {}

// LogObserver logs scoring and the result; every tick is logged at debug.
type LogObserver struct {
	Log logger.Logger
}

func (o LogObserver) OnTick(state State, events game.Events, reconciled bool) {
	fields := []logger.Field{
		{Key: "sync", Value: state.Sync},
		{Key: "left", Value: state.World.LeftScore},
		{Key: "right", Value: state.World.RightScore},
	}

	if events.Scored.Valid() {
		o.Log.Info("point scored", append(fields, logger.Field{Key: "by", Value: events.Scored.String()})...)
		return
	}

	if reconciled {
		o.Log.Debug("caught up with peer", fields...)
		return
	}

	o.Log.Debug("tick", fields...)
}

func (o LogObserver) OnGameOver(winner game.Side, state State) {
	result := "you lose"
	if winner == state.Side {
		result = "you win"
	}

	o.Log.Info("game over",
		logger.Field{Key: "winner", Value: winner.String()},
		logger.Field{Key: "result", Value: result},
		logger.Field{Key: "left", Value: state.World.LeftScore},
		logger.Field{Key: "right", Value: state.World.RightScore})
}
