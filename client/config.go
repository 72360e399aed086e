package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// Config holds the network tuning knobs Dial uses to establish a
// connection. Its zero value is ready to use: DialTimeout of zero defers
// entirely to ctx's own deadline, and a zero ReadBufferSize leaves the
// Reader's default buffer size in place.
type Config struct {
	// DialTimeout bounds how long Dial waits for the TCP handshake to
	// complete, in addition to whatever deadline ctx already carries.
	DialTimeout time.Duration

	// KeepAlive is passed through to net.Dialer.KeepAlive. Zero enables TCP
	// keep-alive with net.Dialer's default period; a negative value
	// disables it.
	KeepAlive time.Duration

	// ReadBufferSize sets the size of the buffered reader wrapped around
	// the dialed connection. Zero uses bufio's default size.
	ReadBufferSize int
}

// Dial connects to address over TCP using cfg and returns an Engine ready
// to have Run called on it. Dial itself does not perform the HELLO 3
// handshake or start the reader/writer goroutines; both happen once Run is
// called.
func Dial(ctx context.Context, address string, cfg Config, log *zap.Logger) (*Engine, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: cfg.KeepAlive}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %s", ErrConnection, address, err)
	}

	e := NewEngine(conn, log)
	if cfg.ReadBufferSize > 0 {
		e.rw.Reader.Reset(bufio.NewReaderSize(conn, cfg.ReadBufferSize))
	}
	return e, nil
}
