package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/logger"
	"github.com/cyberinferno/netpong/perfmonitor"
	"github.com/cyberinferno/netpong/wire"
)

// Transport carries frames to and from the peer through the relay.
type Transport interface {
	Send(payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
}

// LoopOptions configures a Loop. Zero values fall back to defaults.
type LoopOptions struct {
	// Interval between ticks; default 1/60 s.
	Interval time.Duration
	// GameOverHold is how long Run waits after the game ends; 0 returns at once.
	GameOverHold time.Duration
	Clock        clockwork.Clock
	Input        Input
	Observer     Observer
	Log          logger.Logger
}

// Loop is the fixed-rate client simulation. Each tick sends the local
// snapshot, blocks for the peer's, reconciles, then steps physics.
type Loop struct {
	state     *State
	transport Transport
	interval  time.Duration
	hold      time.Duration
	clock     clockwork.Clock
	input     Input
	observer  Observer
	log       logger.Logger
}

// NewLoop creates a loop over state.
func NewLoop(state *State, transport Transport, opts LoopOptions) *Loop {
	l := &Loop{
		state:     state,
		transport: transport,
		interval:  opts.Interval,
		hold:      opts.GameOverHold,
		clock:     opts.Clock,
		input:     opts.Input,
		observer:  opts.Observer,
		log:       opts.Log,
	}

	if l.interval <= 0 {
		l.interval = time.Second / 60
	}

	if l.clock == nil {
		l.clock = clockwork.NewRealClock()
	}

	if l.input == nil {
		l.input = InputFunc(func() game.Direction { return game.DirectionIdle })
	}

	if l.observer == nil {
		l.observer = nopObserver{}
	}

	if l.log == nil {
		l.log = logger.NewNop()
	}

	return l
}

// State returns the loop's state.
func (l *Loop) State() *State {
	return l.state
}

// Tick runs one simulation step. Once the game is over every call returns
// a *GameOverError without touching the network.
//
// Returns:
//   - The physics events of the tick
//   - A *GameOverError when this tick ends the game, or an error wrapping
//     ErrConnection or ErrProtocol
func (l *Loop) Tick(ctx context.Context) (game.Events, error) {
	if l.state.Over {
		return game.Events{}, &GameOverError{Winner: l.state.Winner}
	}

	pm := perfmonitor.NewPerformanceMonitor()
	pm.Start()

	l.state.Own().Moving = l.input.Direction()

	payload, err := wire.Marshal(l.state.Outbound())
	if err != nil {
		return game.Events{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	if err := l.transport.Send(payload); err != nil {
		return game.Events{}, err
	}

	raw, err := l.transport.Receive(ctx)
	if err != nil {
		return game.Events{}, err
	}

	in, err := wire.Unmarshal(raw)
	if err != nil {
		return game.Events{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	if err := l.state.Adopt(in); err != nil {
		return game.Events{}, err
	}

	reconciled := Reconcile(l.state, in)
	events := l.state.World.Step()
	pm.Stop()

	if winner, ok := l.state.World.Winner(); ok {
		l.state.Over = true
		l.state.Winner = winner
		l.observer.OnTick(*l.state, events, reconciled)
		l.log.Debug("final tick",
			logger.Field{Key: "winner", Value: winner.String()},
			logger.Field{Key: "sync", Value: l.state.Sync},
			logger.Field{Key: "elapsed_ms", Value: pm.ElapsedMilliseconds()})
		return events, &GameOverError{Winner: winner}
	}

	l.state.Sync++

	l.observer.OnTick(*l.state, events, reconciled)

	if reconciled {
		l.log.Debug("reconciled with peer",
			logger.Field{Key: "sync", Value: l.state.Sync},
			logger.Field{Key: "elapsed_ms", Value: pm.ElapsedMilliseconds()})
	}

	return events, nil
}

// Run ticks at the configured interval until the game ends, the context is
// cancelled or a tick fails. After a win the observer is told, Run holds
// for GameOverHold and returns the *GameOverError.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if _, err := l.Tick(ctx); err != nil {
			var over *GameOverError
			if errors.As(err, &over) {
				l.finish(ctx, over.Winner)
			}

			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

func (l *Loop) finish(ctx context.Context, winner game.Side) {
	l.observer.OnGameOver(winner, *l.state)

	if l.hold <= 0 {
		return
	}

	select {
	case <-ctx.Done():
	case <-l.clock.After(l.hold):
	}
}
