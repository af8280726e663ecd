package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/netpong/client"
	"github.com/cyberinferno/netpong/config"
	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/logger"
)

func TestParseDirection(t *testing.T) {
	tests := map[string]game.Direction{
		"u":        game.DirectionUp,
		" UP ":     game.DirectionUp,
		"d":        game.DirectionDown,
		"down":     game.DirectionDown,
		"":         game.DirectionIdle,
		"stop":     game.DirectionIdle,
		"sideways": game.DirectionIdle,
	}

	for line, want := range tests {
		assert.Equal(t, want, parseDirection(line), "line %q", line)
	}
}

func TestStdinInput(t *testing.T) {
	in := newStdinInput(strings.NewReader("u\nd\n"))

	assert.Eventually(t, func() bool {
		return in.Direction() == game.DirectionDown
	}, time.Second, time.Millisecond)
}

func TestPlay_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := config.DefaultClient()
	cfg.ServerAddr = addr
	cfg.DialTimeout = time.Second

	err = play(context.Background(), cfg, logger.NewNop(), client.InputFunc(func() game.Direction { return game.DirectionIdle }))
	assert.Equal(t, client.ExitConnection, client.ExitCode(err))
}

func TestRun_StartupFailuresAreConfigErrors(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("server_addr: [unterminated"), 0o600))

	badLevel := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(badLevel, []byte("log:\n  level: loud\n"), 0o600))

	tests := []struct {
		name       string
		configPath string
	}{
		{"missing config file", filepath.Join(dir, "absent.yaml")},
		{"unparsable config", badYAML},
		{"invalid log level", badLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, client.ExitConfig, run(tt.configPath, filepath.Join(dir, "none.env"), ""))
		})
	}
}
