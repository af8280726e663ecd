package relay

import (
	"errors"
	"net"
	"os"

	"github.com/cyberinferno/netpong/frame"
	"github.com/cyberinferno/netpong/metrics"
	"github.com/cyberinferno/netpong/wire"
)

// FaultKind classifies why a connection stopped or a frame was rejected.
// Every kind has its own recovery: decode faults echo the frame and keep the
// worker alive, the others tear the connection down.
type FaultKind uint8

const (
	FaultDisconnect FaultKind = iota
	FaultTimeout
	FaultDecode
	FaultProtocol
)

func (k FaultKind) String() string {
	switch k {
	case FaultDisconnect:
		return metrics.FaultDisconnect
	case FaultTimeout:
		return metrics.FaultTimeout
	case FaultDecode:
		return metrics.FaultDecode
	case FaultProtocol:
		return metrics.FaultProtocol
	default:
		return "unknown"
	}
}

// ErrProtocol marks a peer that broke the handshake or framing rules.
var ErrProtocol = errors.New("protocol violation")

// Classify maps a worker error to its fault kind. Anything that is not a
// timeout, decode or protocol error is treated as a disconnect.
func Classify(err error) FaultKind {
	var netErr net.Error

	switch {
	case errors.Is(err, wire.ErrDecode):
		return FaultDecode
	case errors.Is(err, frame.ErrFrameTooLarge), errors.Is(err, ErrProtocol):
		return FaultProtocol
	case errors.Is(err, os.ErrDeadlineExceeded):
		return FaultTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return FaultTimeout
	default:
		return FaultDisconnect
	}
}
