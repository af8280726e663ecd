package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyberinferno/netpong/game"
)

var (
	// ErrConnection wraps transport failures: dial, send, receive, timeout.
	ErrConnection = errors.New("connection error")

	// ErrProtocol wraps messages that break the handshake or snapshot rules.
	ErrProtocol = errors.New("protocol error")

	// ErrGameOver is matched by the error a loop returns once a side wins.
	ErrGameOver = errors.New("game over")
)

// Exit codes of the client process.
const (
	ExitOK         = 0
	ExitConnection = 1
	ExitProtocol   = 2
	// ExitConfig reports a startup failure (env file, config or logger)
	// before any connection was attempted.
	ExitConfig = 3
)

// GameOverError carries the winning side.
type GameOverError struct {
	Winner game.Side
}

func (e *GameOverError) Error() string {
	return fmt.Sprintf("game over: %s wins", e.Winner)
}

func (e *GameOverError) Is(target error) bool {
	return target == ErrGameOver
}

// ExitCode maps the error that ended a client to its process exit code.
// A finished game and a cancelled context are normal shutdowns.
func ExitCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, ErrGameOver),
		errors.Is(err, context.Canceled):
		return ExitOK
	case errors.Is(err, ErrProtocol):
		return ExitProtocol
	default:
		return ExitConnection
	}
}
