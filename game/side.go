// Package game holds the deterministic pong simulation shared by both players:
// playfield geometry, paddles, ball physics, scoring and the win condition.
// Nothing in this package performs I/O; a World only changes when Step is called
// or when a caller overwrites its fields (reconciliation).
package game

import "fmt"

// Side is the role a connection plays for the whole session.
type Side uint8

const (
	SideInvalid Side = 0
	SideLeft    Side = 1
	SideRight   Side = 2
)

// String returns the handshake token for the side ("left" or "right").
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "invalid"
	}
}

// Valid reports whether s is Left or Right.
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// Opponent returns the other side. The opponent of an invalid side is invalid.
func (s Side) Opponent() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideInvalid
	}
}

// ParseSide converts a handshake token back into a Side.
//
// Parameters:
//   - token: "left" or "right"
//
// Returns:
//   - The matching Side
//   - An error if the token names no side
func ParseSide(token string) (Side, error) {
	switch token {
	case "left":
		return SideLeft, nil
	case "right":
		return SideRight, nil
	default:
		return SideInvalid, fmt.Errorf("unknown side token %q", token)
	}
}

// Direction is a paddle's movement intent for one tick.
type Direction uint8

const (
	DirectionIdle Direction = 0
	DirectionUp   Direction = 1
	DirectionDown Direction = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionIdle:
		return "idle"
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the three known intents.
func (d Direction) Valid() bool {
	return d <= DirectionDown
}
