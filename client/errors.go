package client

import "errors"

var (
	// ErrClosed is returned by Send and SendRange once the Engine has
	// stopped running, and by Run if it is called more than once.
	ErrClosed = errors.New("client: engine closed")

	// ErrNotRunning is returned by Send and SendRange when called before
	// Run has completed its handshake.
	ErrNotRunning = errors.New("client: engine is not running")

	// ErrProtocol wraps a fatal, connection-ending protocol violation, such
	// as a reply arriving with no command awaiting one.
	ErrProtocol = errors.New("client: protocol error")

	// ErrHandshakeFailed is returned by Run when the HELLO 3 handshake does
	// not complete successfully.
	ErrHandshakeFailed = errors.New("client: HELLO handshake failed")

	// ErrConnection wraps a fatal I/O error on the underlying connection.
	ErrConnection = errors.New("client: connection error")
)
