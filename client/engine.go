package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/grafikrobot/boostorg.redis/command"
	"github.com/grafikrobot/boostorg.redis/resp3"
)

// State is the lifecycle stage of an Engine's connection.
type State int32

const (
	// StateDisconnected is the initial state before Run is called.
	StateDisconnected State = iota
	// StateHandshaking is set while the HELLO 3 handshake is in progress.
	StateHandshaking
	// StateRunning is set once the handshake has completed and Send/SendRange
	// accept new commands.
	StateRunning
	// StateDraining is set once Run's context is cancelled or a fatal error
	// occurs; no new commands are accepted and in-flight ones are being
	// failed.
	StateDraining
	// StateClosed is the terminal state; the underlying connection is
	// closed and Run has returned.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateHandshaking:
		return "handshaking"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Engine drives one Redis connection: it serializes outgoing commands,
// tracks which reply belongs to which command, and delivers push messages
// separately from ordinary replies. All of its exported methods are safe
// for concurrent use.
//
// The reader goroutine started by Run owns the Parser exclusively and is the
// only one to pop the Dispatcher FIFO; callers of Send append to that FIFO,
// which is guarded by the Dispatcher's own mutex. The writer goroutine
// drains the outgoing write queue, a channel fed by Send under sendMu.
type Engine struct {
	conn net.Conn
	rw   *resp3.ReadWriter

	log *zap.Logger

	dispatcher Dispatcher

	sendMu sync.Mutex
	ser    Serializer

	writeCh chan []byte
	pushes  chan []resp3.Node

	state atomic.Int32

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error

	wg sync.WaitGroup
}

// NewEngine returns an Engine that will drive conn once Run is called. If
// log is nil, a no-op logger is used.
func NewEngine(conn net.Conn, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		conn:    conn,
		rw:      resp3.NewReadWriter(conn),
		log:     log.Named("client"),
		writeCh: make(chan []byte, 16),
		pushes:  make(chan []resp3.Node, 256),
		closed:  make(chan struct{}),
	}
	return e
}

// State reports the Engine's current lifecycle stage.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Pushes returns the channel on which push frames (pub/sub messages,
// invalidation notices, and similar out-of-band replies) are delivered, in
// the order they were received. The channel is buffered; if it fills up,
// the reader goroutine blocks until it is drained, which also blocks
// delivery of ordinary replies. Callers that expect push traffic must keep
// this channel drained.
func (e *Engine) Pushes() <-chan []resp3.Node {
	return e.pushes
}

// Run performs the HELLO 3 handshake, then serves the connection until ctx
// is cancelled or a fatal error occurs, at which point the connection is
// closed and any in-flight commands are failed. Run returns nil only if ctx
// is cancelled after a clean handshake; otherwise it returns the error that
// ended the connection.
//
// Run must be called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateDisconnected), int32(StateHandshaking)) {
		return ErrClosed
	}

	if err := e.handshake(); err != nil {
		e.state.Store(int32(StateClosed))
		_ = e.conn.Close()
		close(e.closed)
		return fmt.Errorf("%w: %s", ErrHandshakeFailed, err)
	}
	e.log.Info("connection established")

	e.state.Store(int32(StateRunning))

	e.wg.Add(2)
	go e.writeLoop()
	go e.readLoop()

	select {
	case <-ctx.Done():
	case <-e.closed:
	}

	e.state.Store(int32(StateDraining))
	_ = e.conn.Close()
	e.wg.Wait()

	e.dispatcher.drain(ErrClosed)
	e.state.Store(int32(StateClosed))
	e.closeOnce.Do(func() { close(e.closed) })

	if ctx.Err() != nil {
		return nil
	}
	return e.closeErr
}

func (e *Engine) handshake() error {
	if err := e.rw.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := e.rw.WriteBlobString([]byte(command.Hello.String())); err != nil {
		return err
	}
	if err := e.rw.WriteBlobString([]byte("3")); err != nil {
		return err
	}

	var p resp3.Parser
	var raw resp3.RawList
	if err := p.Parse(&e.rw.Reader, &raw); err != nil {
		return err
	}
	if len(raw.Nodes) == 0 || raw.Nodes[0].DataType != resp3.TypeMap {
		return fmt.Errorf("expected map reply, got %d node(s)", len(raw.Nodes))
	}
	return nil
}

func (e *Engine) fail(err error) {
	e.closeOnce.Do(func() {
		e.closeErr = err
		e.log.Warn("connection failed", zap.Error(err))
		close(e.closed)
	})
}

func (e *Engine) writeLoop() {
	defer e.wg.Done()
	log := e.log.Named("writer")
	for {
		select {
		case b, ok := <-e.writeCh:
			if !ok {
				return
			}
			if _, err := e.conn.Write(b); err != nil {
				log.Warn("write failed", zap.Error(err))
				e.fail(fmt.Errorf("%w: %s", ErrConnection, err))
				return
			}
		case <-e.closed:
			return
		}
	}
}

// routedSink resolves, on the first non-attribute node of a reply, whether
// that reply is a push frame or an ordinary FIFO reply, forwarding every
// node from that point on to whichever Sink the resolve callback returns.
// A single leading attribute block is dropped rather than forwarded, since
// neither push delivery nor the FIFO sinks need to see it. The skip is
// tracked by Depth rather than a flat child count, so an attribute value
// that is itself an aggregate has its whole subtree dropped along with it.
type routedSink struct {
	resolve   func(first resp3.Node) resp3.Sink
	target    resp3.Sink
	started   bool
	skipping  bool
	skipDepth int
}

func (r *routedSink) Push(n resp3.Node) error {
	if r.skipping {
		if n.Depth > r.skipDepth {
			return nil
		}
		r.skipping = false
	}
	if !r.started {
		r.started = true
		if n.DataType == resp3.TypeAttribute {
			r.skipping = true
			r.skipDepth = n.Depth
			return nil
		}
	}
	if r.target == nil {
		r.target = r.resolve(n)
	}
	return r.target.Push(n)
}

func isFatal(err error) bool {
	return err != nil && !errors.Is(err, resp3.ErrAdapterMismatch)
}

func (e *Engine) readLoop() {
	defer e.wg.Done()
	log := e.log.Named("reader")

	for {
		var entry *inflight
		isPush := false
		pushNodes := &resp3.RawList{}
		orphanNodes := &resp3.RawList{}

		routed := &routedSink{resolve: func(first resp3.Node) resp3.Sink {
			if first.DataType == resp3.TypePush {
				isPush = true
				return pushNodes
			}
			entry = e.dispatcher.popOldest()
			if entry == nil {
				return orphanNodes
			}
			return entry.sink
		}}

		var p resp3.Parser
		perr := p.Parse(&e.rw.Reader, routed)

		switch {
		case perr != nil && !routed.started:
			// Failed before even the type marker of the next reply could be
			// read; the FIFO was never touched and the connection itself is
			// unusable.
			log.Warn("connection read failed", zap.Error(perr))
			e.fail(fmt.Errorf("%w: %s", ErrConnection, perr))
			return
		case isPush:
			if perr != nil {
				log.Warn("push frame decode failed", zap.Error(perr))
				e.fail(fmt.Errorf("%w: %s", ErrConnection, perr))
				return
			}
			select {
			case e.pushes <- pushNodes.Nodes:
			case <-e.closed:
				return
			}
		case entry != nil:
			entry.done <- perr
			close(entry.done)
			if isFatal(perr) {
				e.fail(perr)
				return
			}
		default:
			protoErr := &resp3.ProtocolError{Reason: "reply with no command awaiting one", Nodes: orphanNodes.Nodes}
			e.fail(fmt.Errorf("%w: %s", ErrProtocol, protoErr))
			return
		}
	}
}

// Send writes cmd with args as a single-command request and blocks until
// its reply has been fully decoded into sink, ctx is done, or the
// connection closes. Plain string arguments can be passed as
// client.StringArg(s); IntArg, FloatArg and BoolArg convert other Go
// values to their canonical wire form.
func (e *Engine) Send(ctx context.Context, cmd command.Command, sink resp3.Sink, args ...Arg) error {
	return e.dispatch(ctx, cmd, sink, func() error { return e.ser.Push(cmd, args...) })
}

// SendRange writes cmd with key and every element of values as a single
// command's arguments, e.g. RPUSH key v1 v2 v3, and blocks until its reply
// has been fully decoded into sink, ctx is done, or the connection closes.
func (e *Engine) SendRange(ctx context.Context, cmd command.Command, key string, values []Arg, sink resp3.Sink) error {
	return e.dispatch(ctx, cmd, sink, func() error { return e.ser.PushRange(cmd, key, values) })
}

// SendMap writes cmd with key and the alternating field/value pairs drawn
// from m as a single command's arguments, e.g. HSET key f1 v1 f2 v2, and
// blocks until its reply has been fully decoded into sink, ctx is done, or
// the connection closes.
func SendMap[M PairMap](ctx context.Context, e *Engine, cmd command.Command, key string, m M, sink resp3.Sink) error {
	return e.dispatch(ctx, cmd, sink, func() error { return PushMap(&e.ser, cmd, key, m) })
}

func (e *Engine) dispatch(ctx context.Context, cmd command.Command, sink resp3.Sink, enqueue func() error) error {
	switch e.State() {
	case StateRunning:
	case StateDisconnected, StateHandshaking:
		return ErrNotRunning
	default:
		return ErrClosed
	}

	e.sendMu.Lock()
	if err := enqueue(); err != nil {
		e.sendMu.Unlock()
		return err
	}
	req := e.ser.Request()

	// SUBSCRIBE/UNSUBSCRIBE are acknowledged by a push frame, not an
	// ordinary FIFO reply - readLoop's push branch never pops the
	// dispatcher, so an entry enqueued here would wait forever. Write the
	// command and return once it is on the wire; a caller that wants the
	// acknowledgement observes it on Pushes, like any other push.
	if cmd.SwitchesSubscriptionState() {
		defer e.sendMu.Unlock()
		select {
		case e.writeCh <- req.Bytes:
			return nil
		case <-e.closed:
			return ErrClosed
		}
	}

	done := e.dispatcher.Enqueue(cmd, sink)

	select {
	case e.writeCh <- req.Bytes:
	case <-e.closed:
		e.sendMu.Unlock()
		return ErrClosed
	}
	e.sendMu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// The command has already been written and its reply, once it
		// arrives, will be discarded by the buffered done channel; the
		// connection and its FIFO stay in sync for other callers.
		return ctx.Err()
	case <-e.closed:
		return ErrClosed
	}
}
