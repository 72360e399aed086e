// Package client implements a pipelined, asynchronous Redis client on top of
// package resp3.
//
// Serializer turns commands into RESP2-framed request bytes (RESP3 replies
// are still decoded on the way back, but requests are sent using the
// simple, universally-understood inline array encoding). Dispatcher tracks
// the FIFO order in which commands were written so that replies, which
// arrive in the same order, can be routed back to the caller that issued
// them; push messages (pub/sub, invalidation, etc.) bypass the FIFO
// entirely. Engine ties a net.Conn, a Serializer and a Dispatcher together
// into a running connection with a reader goroutine and a writer goroutine
// coupled only by channels, so neither the parser's state nor the pending
// write queue ever needs a lock on the hot path.
package client
