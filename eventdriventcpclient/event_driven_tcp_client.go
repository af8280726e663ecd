// Package eventdriventcpclient provides a framed TCP client that reports
// connection state changes, received frames and errors through registered
// handlers. Frames use the length-prefixed format of package frame.
package eventdriventcpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cyberinferno/netpong/frame"
)

// ConnectionState represents the current state of the TCP connection.
type ConnectionState int

const (
	Disconnected ConnectionState = iota // Not connected
	Connecting                          // Dial in progress
	Connected                           // Successfully connected
	Closed                              // Closed by the caller and will not connect again
)

// String returns a human-readable name for the connection state.
func (cs ConnectionState) String() string {
	switch cs {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

var (
	ErrClosed       = errors.New("client is closed")
	ErrNotConnected = errors.New("not connected")
)

// ConnectionStateEvent is emitted when the connection state changes.
type ConnectionStateEvent struct {
	State     ConnectionState // The new connection state
	Address   string          // The remote address (e.g. "host:port")
	Timestamp time.Time       // When the state change occurred
	Error     error           // Non-nil if the state change was due to an error
}

// FrameEvent is emitted for every frame read from the connection.
type FrameEvent struct {
	Payload   []byte    // The frame payload; owned by the handler
	Timestamp time.Time // When the frame was read
}

// ErrorEvent is emitted when a read or connection error occurs.
type ErrorEvent struct {
	Error     error
	Timestamp time.Time
}

// ConnectionStateHandler is called when the connection state changes.
type ConnectionStateHandler func(event ConnectionStateEvent)

// FrameHandler is called from the read goroutine for each frame, in the
// order frames arrived. The next frame is not read until it returns.
type FrameHandler func(event FrameEvent)

// ErrorHandler is called from the read goroutine when reading stops with an
// error. It is not called for reads interrupted by Close.
type ErrorHandler func(event ErrorEvent)

// Config holds configuration for the client.
type Config struct {
	// Address is the "host:port" to connect to.
	Address string
	// WriteTimeout is the max duration for a single write; 0 means no timeout.
	WriteTimeout time.Duration
	// ConnectionTimeout is the max duration for establishing the connection.
	ConnectionTimeout time.Duration
	// MaxFrameSize bounds frames in both directions; 0 means frame.DefaultMaxSize.
	MaxFrameSize int
}

// DefaultEventDrivenTCPClientConfig returns a Config with default values for the given address.
//
// Parameters:
//   - address: The "host:port" to connect to
//
// Returns:
//   - A Config with defaults: WriteTimeout 10s, ConnectionTimeout 10s, MaxFrameSize 1024
func DefaultEventDrivenTCPClientConfig(address string) Config {
	return Config{
		Address:           address,
		WriteTimeout:      10 * time.Second,
		ConnectionTimeout: 10 * time.Second,
		MaxFrameSize:      frame.DefaultMaxSize,
	}
}

// EventDrivenTCPClient is a framed TCP client. Register handlers, then call
// Connect. It is safe for concurrent use.
type EventDrivenTCPClient struct {
	config Config
	conn   net.Conn
	state  ConnectionState

	onConnectionState ConnectionStateHandler
	onFrame           FrameHandler
	onError           ErrorHandler

	mu      sync.RWMutex
	writeMu sync.Mutex
	wg      sync.WaitGroup
	closed  bool
}

// NewEventDrivenTCPClient creates a client in Disconnected state.
func NewEventDrivenTCPClient(config Config) *EventDrivenTCPClient {
	if config.MaxFrameSize <= 0 {
		config.MaxFrameSize = frame.DefaultMaxSize
	}

	return &EventDrivenTCPClient{
		config: config,
		state:  Disconnected,
	}
}

// OnConnectionState registers the handler for connection state changes.
// Repeated calls replace the previous handler; nil clears it.
func (c *EventDrivenTCPClient) OnConnectionState(handler ConnectionStateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnectionState = handler
}

// OnFrame registers the handler for incoming frames.
// Repeated calls replace the previous handler; nil clears it.
func (c *EventDrivenTCPClient) OnFrame(handler FrameHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = handler
}

// OnError registers the handler for read errors.
// Repeated calls replace the previous handler; nil clears it.
func (c *EventDrivenTCPClient) OnError(handler ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = handler
}

// Connect dials the configured address and starts the read goroutine.
//
// Parameters:
//   - ctx: Bounds the dial together with ConnectionTimeout
//
// Returns:
//   - ErrClosed after Close, an error if already connected, or the dial error
func (c *EventDrivenTCPClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.state == Connected || c.state == Connecting {
		c.mu.Unlock()
		return fmt.Errorf("already connected or connecting")
	}
	c.mu.Unlock()

	c.setState(Connecting, nil)

	dialer := net.Dialer{Timeout: c.config.ConnectionTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.config.Address)
	if err != nil {
		c.setState(Disconnected, err)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	c.setState(Connected, nil)

	c.wg.Add(1)
	go c.readLoop(conn)

	return nil
}

// Send writes payload as one frame. Concurrent calls are serialized.
//
// Returns:
//   - ErrNotConnected, frame.ErrFrameTooLarge, or the write error
func (c *EventDrivenTCPClient) Send(payload []byte) error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if state != Connected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
			return err
		}
	}

	return frame.Write(conn, payload, c.config.MaxFrameSize)
}

// Close closes the connection and waits for the read goroutine to exit.
// Idempotent.
func (c *EventDrivenTCPClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true

	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.setState(Closed, nil)

	return err
}

// GetState returns the current connection state.
func (c *EventDrivenTCPClient) GetState() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected returns true if the client is in Connected state.
func (c *EventDrivenTCPClient) IsConnected() bool {
	return c.GetState() == Connected
}

func (c *EventDrivenTCPClient) readLoop(conn net.Conn) {
	defer c.wg.Done()

	for {
		payload, err := frame.Read(conn, c.config.MaxFrameSize)
		if err != nil {
			if c.isClosed() {
				return
			}

			c.mu.Lock()
			if c.conn == conn {
				_ = conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()

			c.setState(Disconnected, err)
			c.emitError(err)
			return
		}

		c.emitFrame(payload)
	}
}

func (c *EventDrivenTCPClient) setState(state ConnectionState, err error) {
	c.mu.Lock()
	c.state = state
	handler := c.onConnectionState
	c.mu.Unlock()

	if handler != nil {
		handler(ConnectionStateEvent{
			State:     state,
			Address:   c.config.Address,
			Timestamp: time.Now(),
			Error:     err,
		})
	}
}

func (c *EventDrivenTCPClient) emitFrame(payload []byte) {
	c.mu.RLock()
	handler := c.onFrame
	c.mu.RUnlock()

	if handler != nil {
		handler(FrameEvent{Payload: payload, Timestamp: time.Now()})
	}
}

func (c *EventDrivenTCPClient) emitError(err error) {
	c.mu.RLock()
	handler := c.onError
	c.mu.RUnlock()

	if handler != nil {
		handler(ErrorEvent{Error: err, Timestamp: time.Now()})
	}
}

func (c *EventDrivenTCPClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
