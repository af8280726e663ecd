// Package frame implements the message framing shared by the relay server and
// its clients: every message is a 4-byte little-endian length followed by that
// many payload bytes. Frames are bounded so a peer cannot make the reader
// allocate arbitrarily large buffers.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the length of the little-endian size prefix.
	HeaderSize = 4

	// DefaultMaxSize bounds a payload when no explicit limit is configured.
	DefaultMaxSize = 1024
)

var (
	// ErrEmptyFrame is returned when a peer sends a zero-length frame.
	ErrEmptyFrame = errors.New("empty frame")

	// ErrFrameTooLarge is returned when a frame exceeds the configured bound.
	ErrFrameTooLarge = errors.New("frame too large")
)

// Encode prefixes payload with its length.
//
// Parameters:
//   - payload: The message bytes
//
// Returns:
//   - A new slice holding header and payload
func Encode(payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// Write encodes payload and writes it to w in a single call so concurrent
// writers serialized by the caller never interleave header and body.
//
// Parameters:
//   - w: Destination writer
//   - payload: The message bytes
//   - maxSize: Largest payload allowed; 0 means DefaultMaxSize
//
// Returns:
//   - ErrFrameTooLarge if payload exceeds maxSize, or the write error
func Write(w io.Writer, payload []byte, maxSize int) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	if len(payload) > maxSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(payload), maxSize)
	}

	_, err := w.Write(Encode(payload))
	return err
}

// Read reads exactly one frame from r.
//
// Parameters:
//   - r: Source reader
//   - maxSize: Largest payload accepted; 0 means DefaultMaxSize
//
// Returns:
//   - The payload
//   - io.EOF if r was closed cleanly before a header, ErrEmptyFrame for a zero
//     length, ErrFrameTooLarge for an oversized length, or the read error
func Read(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size == 0 {
		return nil, ErrEmptyFrame
	}

	if size > uint32(maxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}

		return nil, err
	}

	return payload, nil
}
