// Package client implements one player: the pairing handshake with the
// relay, the fixed-rate simulation loop and the reconciliation that lets a
// lagging client catch up with its peer.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cyberinferno/netpong/config"
	"github.com/cyberinferno/netpong/eventdriventcpclient"
	"github.com/cyberinferno/netpong/frame"
	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/logger"
	"github.com/cyberinferno/netpong/wire"
)

const inboxSize = 64

type inbound struct {
	payload []byte
	err     error
}

// Setup is what the relay tells a client during the handshake.
type Setup struct {
	Width  int
	Height int
	Side   game.Side
}

// Conn is a client's connection to the relay. Frames are queued in arrival
// order; a read error is queued behind them.
type Conn struct {
	tcp     *eventdriventcpclient.EventDrivenTCPClient
	clock   clockwork.Clock
	timeout time.Duration
	log     logger.Logger

	inbox     chan inbound
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to cfg.ServerAddr.
//
// Parameters:
//   - ctx: Bounds the dial
//   - cfg: Client configuration
//   - log: Logger for connection events
//   - clock: Clock for receive timeouts; nil uses the real clock
//
// Returns:
//   - The connection
//   - An error wrapping ErrConnection if the dial fails
func Dial(ctx context.Context, cfg config.Client, log logger.Logger, clock clockwork.Clock) (*Conn, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	tcpCfg := eventdriventcpclient.DefaultEventDrivenTCPClientConfig(cfg.ServerAddr)
	tcpCfg.ConnectionTimeout = cfg.DialTimeout
	tcpCfg.WriteTimeout = cfg.WriteTimeout
	tcpCfg.MaxFrameSize = cfg.MaxFrameSize

	c := &Conn{
		tcp:     eventdriventcpclient.NewEventDrivenTCPClient(tcpCfg),
		clock:   clock,
		timeout: cfg.ReceiveTimeout,
		log:     log.With(logger.Field{Key: "server", Value: cfg.ServerAddr}),
		inbox:   make(chan inbound, inboxSize),
		done:    make(chan struct{}),
	}

	c.tcp.OnFrame(func(e eventdriventcpclient.FrameEvent) {
		c.push(inbound{payload: e.Payload})
	})
	c.tcp.OnError(func(e eventdriventcpclient.ErrorEvent) {
		c.push(inbound{err: e.Error})
	})
	c.tcp.OnConnectionState(func(e eventdriventcpclient.ConnectionStateEvent) {
		c.log.Debug("connection state", logger.Field{Key: "state", Value: e.State.String()})
	})

	if err := c.tcp.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, cfg.ServerAddr, err)
	}

	return c, nil
}

func (c *Conn) push(in inbound) {
	select {
	case c.inbox <- in:
	case <-c.done:
	}
}

// Handshake reads the geometry and side, replies "ready" and waits for
// "start". The wait for "start" is unbounded apart from ctx since it lasts
// until the other player is ready.
func (c *Conn) Handshake(ctx context.Context) (Setup, error) {
	var setup Setup

	for _, dim := range []*int{&setup.Width, &setup.Height} {
		payload, err := c.receive(ctx, 0)
		if err != nil {
			return Setup{}, err
		}

		if *dim, err = wire.DecodeDimension(payload); err != nil {
			return Setup{}, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
	}

	payload, err := c.receive(ctx, 0)
	if err != nil {
		return Setup{}, err
	}

	if setup.Side, err = wire.DecodeSide(payload); err != nil {
		return Setup{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	c.log.Info("side assigned",
		logger.Field{Key: "side", Value: setup.Side.String()},
		logger.Field{Key: "width", Value: setup.Width},
		logger.Field{Key: "height", Value: setup.Height})

	if err := c.Send([]byte(wire.TokenReady)); err != nil {
		return Setup{}, err
	}

	payload, err = c.receive(ctx, 0)
	if err != nil {
		return Setup{}, err
	}

	if !wire.IsToken(payload, wire.TokenStart) {
		return Setup{}, fmt.Errorf("%w: expected %q, got %q", ErrProtocol, wire.TokenStart, payload)
	}

	c.log.Info("session started")
	return setup, nil
}

// Send writes one frame.
func (c *Conn) Send(payload []byte) error {
	if err := c.tcp.Send(payload); err != nil {
		return fmt.Errorf("%w: send: %w", ErrConnection, err)
	}

	return nil
}

// Receive waits for the next frame, bounded by the configured receive
// timeout when it is non-zero.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	return c.receive(ctx, c.timeout)
}

func (c *Conn) receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := c.clock.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.Chan()
	}

	select {
	case in := <-c.inbox:
		if in.err == nil {
			return in.payload, nil
		}

		if errors.Is(in.err, frame.ErrFrameTooLarge) {
			return nil, fmt.Errorf("%w: %w", ErrProtocol, in.err)
		}

		return nil, fmt.Errorf("%w: receive: %w", ErrConnection, in.err)
	case <-expired:
		return nil, fmt.Errorf("%w: no frame within %s", ErrConnection, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("%w: connection closed", ErrConnection)
	}
}

// Close closes the connection. Idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.tcp.Close()
}
