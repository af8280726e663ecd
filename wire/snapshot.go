package wire

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cyberinferno/netpong/game"
)

// Version is written as the first element of every encoded Snapshot.
const Version uint8 = 1

// snapshotFields is the array length of an encoded Snapshot: the version
// followed by the seven snapshot fields.
const snapshotFields = 8

var (
	// ErrDecode wraps every failure to decode a Snapshot.
	ErrDecode = errors.New("snapshot decode failed")

	// ErrVersion is returned (wrapped in ErrDecode) for an unknown schema version.
	ErrVersion = errors.New("unsupported snapshot version")
)

// PaddleState is a paddle as one client sees it.
type PaddleState struct {
	Y      float64
	Moving game.Direction
}

// BallState is the ball position and per-tick velocity.
type BallState struct {
	X, Y   float64
	VX, VY float64
}

// Snapshot is the per-tick message a client sends to its peer.
//
// Encoded layout (msgpack array):
//
//	[version, side, direction, senderScore, syncCounter,
//	 [paddleY, paddleMoving], [ballX, ballY, ballVX, ballVY], receiverScoreEcho]
type Snapshot struct {
	Side        game.Side
	Direction   game.Direction
	SenderScore uint
	SyncCounter uint64
	// OpponentPaddle is the receiver's paddle as simulated by the sender.
	OpponentPaddle PaddleState
	Ball           BallState
	// ReceiverScoreEcho is the sender's belief about the receiver's score.
	ReceiverScoreEcho uint
}

var _ msgpack.CustomEncoder = (*Snapshot)(nil)
var _ msgpack.CustomDecoder = (*Snapshot)(nil)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (s *Snapshot) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(snapshotFields); err != nil {
		return err
	}

	if err := enc.EncodeUint8(Version); err != nil {
		return err
	}

	if err := enc.EncodeUint8(uint8(s.Side)); err != nil {
		return err
	}

	if err := enc.EncodeUint8(uint8(s.Direction)); err != nil {
		return err
	}

	if err := enc.EncodeUint(uint64(s.SenderScore)); err != nil {
		return err
	}

	if err := enc.EncodeUint(s.SyncCounter); err != nil {
		return err
	}

	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}

	if err := enc.EncodeFloat64(s.OpponentPaddle.Y); err != nil {
		return err
	}

	if err := enc.EncodeUint8(uint8(s.OpponentPaddle.Moving)); err != nil {
		return err
	}

	if err := enc.EncodeArrayLen(4); err != nil {
		return err
	}

	for _, f := range []float64{s.Ball.X, s.Ball.Y, s.Ball.VX, s.Ball.VY} {
		if err := enc.EncodeFloat64(f); err != nil {
			return err
		}
	}

	return enc.EncodeUint(uint64(s.ReceiverScoreEcho))
}

// DecodeMsgpack implements msgpack.CustomDecoder. It validates the array
// shapes, the schema version and the enum fields while decoding.
func (s *Snapshot) DecodeMsgpack(dec *msgpack.Decoder) error {
	if err := expectArray(dec, snapshotFields); err != nil {
		return err
	}

	version, err := decodeByte(dec)
	if err != nil {
		return err
	}

	if version != Version {
		return fmt.Errorf("%w: %d", ErrVersion, version)
	}

	side, err := decodeByte(dec)
	if err != nil {
		return err
	}

	if !game.Side(side).Valid() {
		return fmt.Errorf("invalid side %d", side)
	}

	direction, err := decodeDirection(dec)
	if err != nil {
		return err
	}

	senderScore, err := dec.DecodeUint()
	if err != nil {
		return err
	}

	syncCounter, err := dec.DecodeUint64()
	if err != nil {
		return err
	}

	if err := expectArray(dec, 2); err != nil {
		return err
	}

	paddleY, err := decodeFinite(dec)
	if err != nil {
		return err
	}

	paddleMoving, err := decodeDirection(dec)
	if err != nil {
		return err
	}

	if err := expectArray(dec, 4); err != nil {
		return err
	}

	var ball [4]float64
	for i := range ball {
		if ball[i], err = decodeFinite(dec); err != nil {
			return err
		}
	}

	echo, err := dec.DecodeUint()
	if err != nil {
		return err
	}

	*s = Snapshot{
		Side:              game.Side(side),
		Direction:         direction,
		SenderScore:       senderScore,
		SyncCounter:       syncCounter,
		OpponentPaddle:    PaddleState{Y: paddleY, Moving: paddleMoving},
		Ball:              BallState{X: ball[0], Y: ball[1], VX: ball[2], VY: ball[3]},
		ReceiverScoreEcho: echo,
	}

	return nil
}

func expectArray(dec *msgpack.Decoder, want int) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}

	if n != want {
		return fmt.Errorf("array length %d, want %d", n, want)
	}

	return nil
}

// decodeByte reads a full unsigned integer and rejects values that do not
// fit in a byte instead of truncating them.
func decodeByte(dec *msgpack.Decoder) (uint8, error) {
	v, err := dec.DecodeUint64()
	if err != nil {
		return 0, err
	}

	if v > math.MaxUint8 {
		return 0, fmt.Errorf("value %d out of range", v)
	}

	return uint8(v), nil
}

func decodeFinite(dec *msgpack.Decoder) (float64, error) {
	f, err := dec.DecodeFloat64()
	if err != nil {
		return 0, err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}

	return f, nil
}

func decodeDirection(dec *msgpack.Decoder) (game.Direction, error) {
	v, err := decodeByte(dec)
	if err != nil {
		return game.DirectionIdle, err
	}

	d := game.Direction(v)
	if !d.Valid() {
		return game.DirectionIdle, fmt.Errorf("invalid direction %d", v)
	}

	return d, nil
}

// Marshal encodes s into its wire form.
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.EncodeMsgpack(msgpack.NewEncoder(&buf)); err != nil {
		return nil, fmt.Errorf("snapshot encode failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes and validates a Snapshot. Trailing bytes after the
// record are rejected.
//
// Parameters:
//   - data: A frame payload
//
// Returns:
//   - The decoded Snapshot
//   - An error wrapping ErrDecode if data is not exactly one valid Snapshot
func Unmarshal(data []byte) (Snapshot, error) {
	r := bytes.NewReader(data)

	var s Snapshot
	if err := s.DecodeMsgpack(msgpack.NewDecoder(r)); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if r.Len() != 0 {
		return Snapshot{}, fmt.Errorf("%w: %d trailing bytes", ErrDecode, r.Len())
	}

	return s, nil
}

// Validate reports whether data is a well-formed Snapshot without keeping
// the decoded value.
func Validate(data []byte) error {
	_, err := Unmarshal(data)
	return err
}
