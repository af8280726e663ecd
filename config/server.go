package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyberinferno/netpong/frame"
	"github.com/cyberinferno/netpong/game"
)

// defaults for when not provided
const (
	DefaultServerAddr       = ":5555"
	DefaultIdleTimeout      = 60 * time.Second
	DefaultHandshakeTimeout = 60 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultEventQueue       = 1024
	DefaultRecordTTL        = 24 * time.Hour

	// minFrameSize leaves room for the largest encoded snapshot.
	minFrameSize = 128
)

// Store selects where session records are kept.
type Store struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RecordTTL     time.Duration `yaml:"record_ttl"`
}

// Server configures the pairing/relay server.
type Server struct {
	Addr             string        `yaml:"addr"`
	Width            int           `yaml:"width"`
	Height           int           `yaml:"height"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxFrameSize     int           `yaml:"max_frame_size"`
	EventQueue       int           `yaml:"event_queue"`
	MetricsAddr      string        `yaml:"metrics_addr"`
	Store            Store         `yaml:"store"`
	Log              Log           `yaml:"log"`
}

// DefaultServer returns the server configuration used when nothing is overridden.
func DefaultServer() Server {
	return Server{
		Addr:             DefaultServerAddr,
		Width:            game.DefaultWidth,
		Height:           game.DefaultHeight,
		IdleTimeout:      DefaultIdleTimeout,
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		MaxFrameSize:     frame.DefaultMaxSize,
		EventQueue:       DefaultEventQueue,
		Store: Store{
			Backend:   BackendMemory,
			RecordTTL: DefaultRecordTTL,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// LoadServer resolves the server configuration.
//
// Parameters:
//   - path: Optional YAML file; empty skips the file
//
// Returns:
//   - The validated configuration
//   - An error if the file or an environment override is invalid
func LoadServer(path string) (*Server, error) {
	c := DefaultServer()
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

func (c *Server) applyEnv() error {
	envString("PONG_ADDR", &c.Addr)
	envString("PONG_METRICS_ADDR", &c.MetricsAddr)
	envString("PONG_STORE_BACKEND", &c.Store.Backend)
	envString("PONG_REDIS_ADDR", &c.Store.RedisAddr)
	envString("PONG_REDIS_PASSWORD", &c.Store.RedisPassword)
	c.Log.applyEnv()

	return errors.Join(
		envInt("PONG_WIDTH", &c.Width),
		envInt("PONG_HEIGHT", &c.Height),
		envInt("PONG_MAX_FRAME_SIZE", &c.MaxFrameSize),
		envInt("PONG_REDIS_DB", &c.Store.RedisDB),
		envDuration("PONG_IDLE_TIMEOUT", &c.IdleTimeout),
		envDuration("PONG_HANDSHAKE_TIMEOUT", &c.HandshakeTimeout),
		envDuration("PONG_RECORD_TTL", &c.Store.RecordTTL),
	)
}

// Validate reports the first invalid field.
func (c *Server) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if c.Addr == "" {
		return fmt.Errorf("invalid addr=%s", c.Addr)
	}

	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid geometry width=%d height=%d", c.Width, c.Height)
	}

	if c.IdleTimeout <= 0 {
		return fmt.Errorf("invalid idle_timeout=%s", c.IdleTimeout)
	}

	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("invalid handshake_timeout=%s", c.HandshakeTimeout)
	}

	if c.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write_timeout=%s", c.WriteTimeout)
	}

	if c.MaxFrameSize < minFrameSize {
		return fmt.Errorf("invalid max_frame_size=%d, must be at least %d", c.MaxFrameSize, minFrameSize)
	}

	if c.EventQueue <= 0 {
		return fmt.Errorf("invalid event_queue=%d", c.EventQueue)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.backend=redis requires store.redis_addr")
		}
	default:
		return fmt.Errorf("invalid store.backend=%s", c.Store.Backend)
	}

	if c.Store.RecordTTL <= 0 {
		return fmt.Errorf("invalid store.record_ttl=%s", c.Store.RecordTTL)
	}

	return c.Log.validate()
}
