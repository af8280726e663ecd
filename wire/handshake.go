// Package wire defines what travels inside frames: the text tokens of the
// pairing handshake and the per-tick Snapshot record exchanged by peers.
package wire

import (
	"fmt"
	"strconv"

	"github.com/cyberinferno/netpong/game"
)

const (
	// TokenReady is sent by a client once it has processed its side assignment.
	TokenReady = "ready"

	// TokenStart is broadcast by the server when both sides are ready.
	TokenStart = "start"
)

// EncodeDimension renders a window dimension as a text integer.
func EncodeDimension(n int) []byte {
	return []byte(strconv.Itoa(n))
}

// DecodeDimension parses a text integer sent by EncodeDimension.
//
// Parameters:
//   - payload: The frame payload
//
// Returns:
//   - The positive dimension
//   - An error if the payload is not a positive integer
func DecodeDimension(payload []byte) (int, error) {
	n, err := strconv.Atoi(string(payload))
	if err != nil {
		return 0, fmt.Errorf("invalid dimension %q: %w", payload, err)
	}

	if n <= 0 {
		return 0, fmt.Errorf("invalid dimension %d", n)
	}

	return n, nil
}

// EncodeSide renders the side assignment token.
func EncodeSide(side game.Side) []byte {
	return []byte(side.String())
}

// DecodeSide parses the side assignment token.
func DecodeSide(payload []byte) (game.Side, error) {
	return game.ParseSide(string(payload))
}

// IsToken reports whether payload is exactly the given control token.
func IsToken(payload []byte, token string) bool {
	return string(payload) == token
}
