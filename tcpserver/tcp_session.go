package tcpserver

// Session is implemented by each accepted connection. The server creates one
// per connection and runs Handle in its own goroutine; when Handle returns
// the server removes the session from its index and closes it.
type Session interface {
	// ID returns the identifier assigned by the server at accept time.
	ID() uint32

	// Handle runs the connection until it fails or is closed.
	Handle()

	// Close releases the connection. It must be safe to call more than once
	// and concurrently with Handle and Send.
	//
	// Returns:
	//   - An error if closing failed
	Close() error

	// Send writes one message to the connection. Implementations must be
	// safe for concurrent use.
	//
	// Parameters:
	//   - payload: The message bytes
	//
	// Returns:
	//   - An error if the write failed
	Send(payload []byte) error
}
