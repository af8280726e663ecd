package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyberinferno/netpong/frame"
)

const (
	DefaultClientServerAddr = "127.0.0.1:5555"
	DefaultTickRate         = 60
	DefaultDialTimeout      = 10 * time.Second
	DefaultGameOverHold     = 3 * time.Second

	maxTickRate = 1000
)

// Client configures one player process.
type Client struct {
	ServerAddr   string        `yaml:"server_addr"`
	TickRate     int           `yaml:"tick_rate"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// ReceiveTimeout bounds the wait for the peer's snapshot. Zero waits forever.
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`
	GameOverHold   time.Duration `yaml:"game_over_hold"`
	MaxFrameSize   int           `yaml:"max_frame_size"`
	Log            Log           `yaml:"log"`
}

// DefaultClient returns the client configuration used when nothing is overridden.
func DefaultClient() Client {
	return Client{
		ServerAddr:   DefaultClientServerAddr,
		TickRate:     DefaultTickRate,
		DialTimeout:  DefaultDialTimeout,
		WriteTimeout: DefaultWriteTimeout,
		GameOverHold: DefaultGameOverHold,
		MaxFrameSize: frame.DefaultMaxSize,
		Log:          Log{Level: "info", Format: "console"},
	}
}

// LoadClient resolves the client configuration.
//
// Parameters:
//   - path: Optional YAML file; empty skips the file
//
// Returns:
//   - The validated configuration
//   - An error if the file or an environment override is invalid
func LoadClient(path string) (*Client, error) {
	c := DefaultClient()
	if err := readYAML(path, &c); err != nil {
		return nil, err
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Client) applyEnv() error {
	envString("PONG_SERVER_ADDR", &c.ServerAddr)
	c.Log.applyEnv()

	return errors.Join(
		envInt("PONG_TICK_RATE", &c.TickRate),
		envDuration("PONG_DIAL_TIMEOUT", &c.DialTimeout),
		envDuration("PONG_RECEIVE_TIMEOUT", &c.ReceiveTimeout),
		envDuration("PONG_GAME_OVER_HOLD", &c.GameOverHold),
	)
}

// TickInterval is the pause between simulation ticks.
func (c *Client) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Validate reports the first invalid field.
func (c *Client) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if c.ServerAddr == "" {
		return fmt.Errorf("invalid server_addr=%s", c.ServerAddr)
	}

	if c.TickRate < 1 || c.TickRate > maxTickRate {
		return fmt.Errorf("invalid tick_rate=%d, must be within 1..%d", c.TickRate, maxTickRate)
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("invalid dial_timeout=%s", c.DialTimeout)
	}

	if c.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write_timeout=%s", c.WriteTimeout)
	}

	if c.ReceiveTimeout < 0 {
		return fmt.Errorf("invalid receive_timeout=%s", c.ReceiveTimeout)
	}

	if c.GameOverHold < 0 {
		return fmt.Errorf("invalid game_over_hold=%s", c.GameOverHold)
	}

	if c.MaxFrameSize < minFrameSize {
		return fmt.Errorf("invalid max_frame_size=%d, must be at least %d", c.MaxFrameSize, minFrameSize)
	}

	return c.Log.validate()
}
