package client

import (
	"bytes"
	"strconv"

	"github.com/grafikrobot/boostorg.redis/command"
	"github.com/grafikrobot/boostorg.redis/resp3"
)

// Arg is a command argument already converted to Redis's canonical wire
// form: a bulk string. Use StringArg, IntArg, FloatArg or BoolArg to build
// one from a Go value; the zero value encodes as an empty bulk string.
type Arg struct {
	text string
}

// StringArg wraps a string argument unchanged.
func StringArg(s string) Arg { return Arg{text: s} }

// IntArg formats v as a decimal integer, e.g. EXPIRE's seconds argument.
func IntArg(v int64) Arg { return Arg{text: strconv.FormatInt(v, 10)} }

// FloatArg formats v with full precision, e.g. ZADD's score argument.
func FloatArg(v float64) Arg { return Arg{text: strconv.FormatFloat(v, 'g', -1, 64)} }

// BoolArg encodes v as "1" or "0", the convention Redis commands use for
// boolean flags (e.g. BITCOUNT's BYTE/BIT unit selector is spelled out, but
// flags like GETEX's PERSIST take this shape in other clients).
func BoolArg(v bool) Arg {
	if v {
		return Arg{text: "1"}
	}
	return Arg{text: "0"}
}

// String returns the argument's canonical textual form.
func (a Arg) String() string { return a.text }

// PairMap is the set of shapes PushMap accepts for a mapping-style command
// such as HSET: an unordered Go map, or an already field/value-ordered
// slice of pairs.
type PairMap interface {
	map[string]string | [][2]string
}

// Request is a batch of one or more commands serialized together, ready to
// be written to a connection in a single Write call, along with the
// command tags that were enqueued while building it, in submission order.
type Request struct {
	Bytes    []byte
	Commands []command.Command
}

// Serializer builds RESP2-framed inline-array request bytes for Redis
// commands and tracks, in submission order, the tags of the commands added
// since the last call to Request. Replies always use RESP3 encoding, but
// requests are written using the plain array-of-bulk-strings form every
// Redis server understands regardless of protocol version.
//
// The zero value is ready to use.
type Serializer struct {
	buf         bytes.Buffer
	w           resp3.Writer
	initialized bool
	commands    []command.Command
}

func (s *Serializer) init() {
	if !s.initialized {
		s.w.Reset(&s.buf)
		s.initialized = true
	}
}

// Push appends one command with the given, possibly heterogeneous
// arguments to the current batch. Each Arg was already converted to its
// canonical textual form by the caller (StringArg, IntArg, FloatArg,
// BoolArg).
func (s *Serializer) Push(cmd command.Command, args ...Arg) error {
	s.init()
	if err := s.writeArray(cmd.String(), args); err != nil {
		return err
	}
	s.commands = append(s.commands, cmd)
	return nil
}

// PushRange appends one command whose arguments are key followed by every
// element of values, e.g. RPUSH key v1 v2 v3. It is the Go analogue of
// pushing a command built from a begin/end iterator range in the original
// C++ client.
func (s *Serializer) PushRange(cmd command.Command, key string, values []Arg) error {
	s.init()
	args := make([]Arg, 0, 1+len(values))
	args = append(args, StringArg(key))
	args = append(args, values...)
	if err := s.writeArray(cmd.String(), args); err != nil {
		return err
	}
	s.commands = append(s.commands, cmd)
	return nil
}

// PushMap appends one command whose arguments are key followed by
// alternating field, value pairs drawn from m, e.g. HSET key f1 v1 f2 v2.
// It is a free function rather than a method because Go methods cannot
// carry their own type parameters.
func PushMap[M PairMap](s *Serializer, cmd command.Command, key string, m M) error {
	s.init()
	args := []Arg{StringArg(key)}
	switch v := any(m).(type) {
	case map[string]string:
		for field, value := range v {
			args = append(args, StringArg(field), StringArg(value))
		}
	case [][2]string:
		for _, pair := range v {
			args = append(args, StringArg(pair[0]), StringArg(pair[1]))
		}
	}
	if err := s.writeArray(cmd.String(), args); err != nil {
		return err
	}
	s.commands = append(s.commands, cmd)
	return nil
}

func (s *Serializer) writeArray(name string, args []Arg) error {
	if err := s.w.WriteArrayHeader(int64(1 + len(args))); err != nil {
		return err
	}
	if err := s.w.WriteBlobString([]byte(name)); err != nil {
		return err
	}
	for _, a := range args {
		if err := s.w.WriteBlobString([]byte(a.text)); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the number of commands enqueued since the last call to
// Request.
func (s *Serializer) Pending() int {
	return len(s.commands)
}

// Request returns the accumulated wire bytes and command tags for every
// Push/PushRange/PushMap call since the last Request call, and resets the
// Serializer for the next batch. The returned Request.Bytes and
// Request.Commands are copies, so later calls do not modify them.
func (s *Serializer) Request() Request {
	req := Request{
		Bytes:    append([]byte(nil), s.buf.Bytes()...),
		Commands: append([]command.Command(nil), s.commands...),
	}
	s.buf.Reset()
	s.commands = s.commands[:0]
	return req
}
