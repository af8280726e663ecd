package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadServer_Defaults(t *testing.T) {
	c, err := LoadServer("")
	require.NoError(t, err)

	assert.Equal(t, DefaultServer(), *c)
	assert.Equal(t, 640, c.Width)
	assert.Equal(t, 480, c.Height)
	assert.Equal(t, 60*time.Second, c.IdleTimeout)
	assert.Equal(t, 1024, c.MaxFrameSize)
	assert.Equal(t, BackendMemory, c.Store.Backend)
}

func TestLoadServer_YAML(t *testing.T) {
	path := writeFile(t, "server.yaml", `
addr: ":7000"
width: 800
idle_timeout: 30s
metrics_addr: ":9100"
store:
  backend: redis
  redis_addr: "localhost:6379"
  record_ttl: 1h
log:
  level: debug
  format: console
`)

	c, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.Addr)
	assert.Equal(t, 800, c.Width)
	assert.Equal(t, 480, c.Height, "unset fields keep defaults")
	assert.Equal(t, 30*time.Second, c.IdleTimeout)
	assert.Equal(t, ":9100", c.MetricsAddr)
	assert.Equal(t, BackendRedis, c.Store.Backend)
	assert.Equal(t, time.Hour, c.Store.RecordTTL)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadServer_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "server.yaml", "addr: \":7000\"\n")
	t.Setenv("PONG_ADDR", ":7001")
	t.Setenv("PONG_IDLE_TIMEOUT", "5s")
	t.Setenv("PONG_HEIGHT", "600")

	c, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, ":7001", c.Addr)
	assert.Equal(t, 5*time.Second, c.IdleTimeout)
	assert.Equal(t, 600, c.Height)
}

func TestLoadServer_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadServer(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadServer(writeFile(t, "bad.yaml", "width: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("PONG_WIDTH", "wide")
		_, err := LoadServer("")
		assert.ErrorContains(t, err, "PONG_WIDTH")
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("PONG_IDLE_TIMEOUT", "soon")
		_, err := LoadServer("")
		assert.ErrorContains(t, err, "PONG_IDLE_TIMEOUT")
	})
}

func TestServer_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Server)
	}{
		{"empty addr", func(c *Server) { c.Addr = "" }},
		{"zero width", func(c *Server) { c.Width = 0 }},
		{"negative height", func(c *Server) { c.Height = -1 }},
		{"zero idle timeout", func(c *Server) { c.IdleTimeout = 0 }},
		{"zero handshake timeout", func(c *Server) { c.HandshakeTimeout = 0 }},
		{"zero write timeout", func(c *Server) { c.WriteTimeout = 0 }},
		{"tiny frame size", func(c *Server) { c.MaxFrameSize = 64 }},
		{"zero event queue", func(c *Server) { c.EventQueue = 0 }},
		{"unknown backend", func(c *Server) { c.Store.Backend = "etcd" }},
		{"redis without addr", func(c *Server) { c.Store.Backend = BackendRedis }},
		{"zero record ttl", func(c *Server) { c.Store.RecordTTL = 0 }},
		{"unknown log format", func(c *Server) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultServer()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	var nilConfig *Server
	assert.Error(t, nilConfig.Validate())
}

func TestLoadClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := LoadClient("")
		require.NoError(t, err)
		assert.Equal(t, DefaultClient(), *c)
		assert.Equal(t, time.Second/60, c.TickInterval())
		assert.Zero(t, c.ReceiveTimeout, "no receive timeout by default")
	})

	t.Run("yaml and env", func(t *testing.T) {
		path := writeFile(t, "client.yaml", "server_addr: \"10.0.0.1:5555\"\ntick_rate: 30\n")
		t.Setenv("PONG_RECEIVE_TIMEOUT", "2s")

		c, err := LoadClient(path)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1:5555", c.ServerAddr)
		assert.Equal(t, 30, c.TickRate)
		assert.Equal(t, 2*time.Second, c.ReceiveTimeout)
	})

	t.Run("invalid tick rate", func(t *testing.T) {
		t.Setenv("PONG_TICK_RATE", "0")
		_, err := LoadClient("")
		assert.Error(t, err)
	})
}

func TestClient_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Client)
	}{
		{"empty server addr", func(c *Client) { c.ServerAddr = "" }},
		{"tick rate too high", func(c *Client) { c.TickRate = 5000 }},
		{"zero dial timeout", func(c *Client) { c.DialTimeout = 0 }},
		{"zero write timeout", func(c *Client) { c.WriteTimeout = 0 }},
		{"negative receive timeout", func(c *Client) { c.ReceiveTimeout = -time.Second }},
		{"negative hold", func(c *Client) { c.GameOverHold = -time.Second }},
		{"tiny frame size", func(c *Client) { c.MaxFrameSize = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultClient()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("PONG_SERVER_ADDR", "")
	require.NoError(t, os.Unsetenv("PONG_SERVER_ADDR"))

	path := writeFile(t, ".env", "PONG_SERVER_ADDR=192.168.1.5:5555\n")
	require.NoError(t, LoadEnvFile(path, filepath.Join(t.TempDir(), "missing.env")))

	c, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.5:5555", c.ServerAddr)
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	t.Setenv("PONG_SERVER_ADDR", "127.0.0.1:1")

	path := writeFile(t, ".env", "PONG_SERVER_ADDR=192.168.1.5:5555\n")
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "127.0.0.1:1", os.Getenv("PONG_SERVER_ADDR"))
}

func TestLog_Options(t *testing.T) {
	opts := Log{Level: "warn", Format: "console", Dir: "/tmp/x"}.Options("pongserver")
	assert.Equal(t, "pongserver", opts.Service)
	assert.Equal(t, "warn", opts.Level)
	assert.Equal(t, "console", opts.Format)
	assert.Equal(t, "/tmp/x", opts.Dir)
}
