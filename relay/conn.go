package relay

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cyberinferno/netpong/frame"
	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/logger"
	"github.com/cyberinferno/netpong/metrics"
	"github.com/cyberinferno/netpong/wire"
)

// connSettings are the per-connection limits taken from the server config.
type connSettings struct {
	width            int
	height           int
	idleTimeout      time.Duration
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	maxFrameSize     int
}

// Conn is the relay worker for one accepted connection: it runs the
// handshake, then forwards every valid snapshot to the session peer.
type Conn struct {
	id       uint32
	conn     net.Conn
	hub      *Hub
	log      logger.Logger
	metrics  *metrics.Metrics
	settings connSettings

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newConn(id uint32, conn net.Conn, hub *Hub, log logger.Logger, m *metrics.Metrics, settings connSettings) *Conn {
	return &Conn{
		id:       id,
		conn:     conn,
		hub:      hub,
		metrics:  m,
		settings: settings,
		log: log.With(
			logger.Field{Key: "conn", Value: id},
			logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
		),
	}
}

func (c *Conn) ID() uint32 {
	return c.id
}

func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Send writes one frame under the write deadline. Safe for concurrent use.
func (c *Conn) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.settings.writeTimeout)); err != nil {
		return err
	}

	return frame.Write(c.conn, payload, c.settings.maxFrameSize)
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})

	return c.closeErr
}

// Handle joins the hub, runs the handshake and relays until the connection
// fails. The connection always leaves the hub before Handle returns.
func (c *Conn) Handle() {
	ctx := context.Background()

	assignment, err := c.hub.Join(ctx, c)
	if err != nil {
		c.log.Error("failed to join hub", logger.Field{Key: "error", Value: err})
		return
	}

	c.log = c.log.With(
		logger.Field{Key: "side", Value: assignment.Side.String()},
		logger.Field{Key: "session", Value: assignment.Session.String()},
	)

	defer func() {
		if err := c.hub.Leave(ctx, c.id); err != nil {
			c.log.Warn("failed to leave hub", logger.Field{Key: "error", Value: err})
		}
		_ = c.Close()
	}()

	if err := c.handshake(ctx, assignment.Side); err != nil {
		c.fault(err)
		return
	}

	c.fault(c.relay(ctx))
}

func (c *Conn) handshake(ctx context.Context, side game.Side) error {
	for _, payload := range [][]byte{
		wire.EncodeDimension(c.settings.width),
		wire.EncodeDimension(c.settings.height),
		wire.EncodeSide(side),
	} {
		if err := c.Send(payload); err != nil {
			return fmt.Errorf("handshake send: %w", err)
		}
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.settings.handshakeTimeout)); err != nil {
		return err
	}

	for {
		payload, err := frame.Read(c.conn, c.settings.maxFrameSize)
		if err != nil {
			return fmt.Errorf("awaiting ready: %w", err)
		}

		if wire.IsToken(payload, wire.TokenReady) {
			break
		}

		c.log.Debug("ignoring frame before ready", logger.Field{Key: "size", Value: len(payload)})
	}

	c.log.Debug("connection ready")
	return c.hub.Ready(ctx, c.id)
}

// relay runs until a read fails. Decode faults are handled in place and do
// not end the loop.
func (c *Conn) relay(ctx context.Context) error {
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.settings.idleTimeout)); err != nil {
			return err
		}

		payload, err := frame.Read(c.conn, c.settings.maxFrameSize)
		if err != nil {
			return err
		}

		if err := wire.Validate(payload); err != nil {
			c.echo(payload, err)
			continue
		}

		peer, ok, err := c.hub.Peer(ctx, c.id)
		if err != nil {
			return err
		}

		if !ok {
			c.metrics.FramesDropped.Inc()
			continue
		}

		if err := peer.Send(payload); err != nil {
			c.metrics.FramesDropped.Inc()
			c.log.Debug("relay to peer failed", logger.Field{Key: "peer", Value: peer.ID()}, logger.Field{Key: "error", Value: err})
			continue
		}

		c.metrics.FramesRelayed.Inc()
		c.metrics.BytesRelayed.Add(float64(len(payload)))
	}
}

func (c *Conn) echo(payload []byte, cause error) {
	c.metrics.Faults.WithLabelValues(FaultDecode.String()).Inc()
	c.log.Warn("malformed snapshot, echoing to sender",
		logger.Field{Key: "size", Value: len(payload)},
		logger.Field{Key: "error", Value: cause})

	if err := c.Send(payload); err != nil {
		c.log.Debug("echo failed", logger.Field{Key: "error", Value: err})
		return
	}

	c.metrics.FramesEchoed.Inc()
}

func (c *Conn) fault(err error) {
	if err == nil {
		return
	}

	kind := Classify(err)
	c.metrics.Faults.WithLabelValues(kind.String()).Inc()

	if kind == FaultDisconnect {
		c.log.Info("connection closed", logger.Field{Key: "fault", Value: kind.String()}, logger.Field{Key: "error", Value: err})
		return
	}

	c.log.Warn("connection faulted", logger.Field{Key: "fault", Value: kind.String()}, logger.Field{Key: "error", Value: err})
}
