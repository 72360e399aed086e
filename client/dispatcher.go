package client

import (
	"sync"

	"github.com/grafikrobot/boostorg.redis/command"
	"github.com/grafikrobot/boostorg.redis/resp3"
)

// inflight is one command awaiting its reply.
type inflight struct {
	cmd  command.Command
	sink resp3.Sink
	done chan error
}

// Dispatcher tracks, in submission order, the commands that have been
// written to the connection but whose reply has not yet been read. Replies
// arrive in the same order commands were written, so the oldest entry
// always corresponds to the next ordinary (non-push) reply. Push frames are
// never taken from this queue; they are routed separately by the caller.
//
// A Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu    sync.Mutex
	queue []*inflight
}

// Enqueue registers sink as the destination for the next ordinary reply and
// returns a buffered channel that receives the outcome of parsing that
// reply exactly once. The channel is buffered so that an abandoned call
// (e.g. one whose context was cancelled) never blocks the reader goroutine.
func (d *Dispatcher) Enqueue(cmd command.Command, sink resp3.Sink) <-chan error {
	done := make(chan error, 1)
	d.mu.Lock()
	d.queue = append(d.queue, &inflight{cmd: cmd, sink: sink, done: done})
	d.mu.Unlock()
	return done
}

// Len reports the number of commands currently awaiting a reply.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// popOldest removes and returns the oldest in-flight entry, or nil if none
// is pending.
func (d *Dispatcher) popOldest() *inflight {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	e := d.queue[0]
	d.queue = d.queue[1:]
	return e
}

// drain fails every command still awaiting a reply with err, e.g. because
// the connection is being closed or has failed. It is idempotent: calling
// it again on an empty queue is a no-op.
func (d *Dispatcher) drain(err error) {
	d.mu.Lock()
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()
	for _, e := range pending {
		e.done <- err
		close(e.done)
	}
}
