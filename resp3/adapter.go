package resp3

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/grafikrobot/boostorg.redis/command"
)

// ErrAdapterMismatch is returned by an Adapter's Push method when the node
// stream it receives does not have the shape the adapter expects. It is
// scoped to the reply being decoded: the underlying connection is
// unaffected and keeps running.
var ErrAdapterMismatch = errors.New("resp3: reply shape did not match adapter")

// ScalarValue enumerates the concrete Go types the generic adapters in this
// package can decode a leaf node into.
type ScalarValue interface {
	string | []byte | int64 | float64 | bool | *big.Int
}

// ComparableScalarValue is ScalarValue restricted to the subset of types
// that also satisfy comparable, for use as a map key constraint.
type ComparableScalarValue interface {
	string | int64 | float64 | bool | *big.Int
}

// attrSkip lets an Adapter tolerate a single attribute block preceding the
// value it actually cares about, per the RESP3 rule that any reply may be
// preceded by exactly one attribute. Skipping is tracked by Depth rather
// than a flat child count, so an attribute value that is itself an
// aggregate has its whole subtree skipped, not just its direct children.
type attrSkip struct {
	seen     bool
	skipping bool
	depth    int
}

// discard reports whether n is part of a leading attribute block that
// should be skipped rather than handed to the adapter's own state machine.
func (a *attrSkip) discard(n Node) bool {
	if a.skipping {
		if n.Depth > a.depth {
			return true
		}
		a.skipping = false
	}
	if !a.seen {
		a.seen = true
		if n.DataType == TypeAttribute {
			a.skipping = true
			a.depth = n.Depth
			return true
		}
	}
	return false
}

// setScalar decodes the payload of leaf node n into *dst.
func setScalar[T ScalarValue](dst *T, n Node) error {
	switch p := any(dst).(type) {
	case *string:
		*p = string(n.Value)
	case *[]byte:
		*p = append([]byte(nil), n.Value...)
	case *int64:
		i, err := strconv.ParseInt(string(n.Value), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: expected integer, got %q", ErrAdapterMismatch, n.Value)
		}
		*p = i
	case *float64:
		f, err := strconv.ParseFloat(string(n.Value), 64)
		if err != nil {
			return fmt.Errorf("%w: expected double, got %q", ErrAdapterMismatch, n.Value)
		}
		*p = f
	case *bool:
		switch string(n.Value) {
		case "t", "1", "true":
			*p = true
		case "f", "0", "false":
			*p = false
		default:
			return fmt.Errorf("%w: expected boolean, got %q", ErrAdapterMismatch, n.Value)
		}
	case **big.Int:
		b := new(big.Int)
		if _, ok := b.SetString(string(n.Value), 10); !ok {
			return fmt.Errorf("%w: expected big number, got %q", ErrAdapterMismatch, n.Value)
		}
		*p = b
	default:
		return fmt.Errorf("%w: unsupported scalar type", ErrAdapterMismatch)
	}
	return nil
}

func isLeafType(t Type) bool {
	switch t {
	case TypeArray, TypeMap, TypeSet, TypePush, TypeAttribute:
		return false
	default:
		return true
	}
}

// Scalar adapts a reply consisting of a single leaf value into a Go value
// of type T. A preceding attribute block is skipped.
type Scalar[T ScalarValue] struct {
	Value T

	attrSkip
	done bool
}

// Push implements Sink.
func (s *Scalar[T]) Push(n Node) error {
	if s.discard(n) {
		return nil
	}
	if s.done || !isLeafType(n.DataType) {
		return fmt.Errorf("%w: scalar adapter expects exactly one leaf value", ErrAdapterMismatch)
	}
	s.done = true
	return setScalar(&s.Value, n)
}

// Sequence adapts a reply consisting of one array or set of leaf values
// into a []T. A preceding attribute block is skipped.
type Sequence[T ScalarValue] struct {
	Values []T

	attrSkip
	remaining int64
	haveHeader bool
	done       bool
}

// Push implements Sink.
func (s *Sequence[T]) Push(n Node) error {
	if s.discard(n) {
		return nil
	}
	if !s.haveHeader {
		if n.DataType != TypeArray && n.DataType != TypeSet {
			return fmt.Errorf("%w: sequence adapter expects array or set, got %q", ErrAdapterMismatch, n.DataType)
		}
		s.haveHeader = true
		s.remaining = n.Aggregate
		s.Values = make([]T, 0, n.Aggregate)
		if s.remaining == 0 {
			s.done = true
		}
		return nil
	}
	if s.done {
		return fmt.Errorf("%w: unexpected trailing node after sequence", ErrAdapterMismatch)
	}
	var v T
	if err := setScalar(&v, n); err != nil {
		return err
	}
	s.Values = append(s.Values, v)
	s.remaining--
	if s.remaining == 0 {
		s.done = true
	}
	return nil
}

// Map adapts a reply consisting of one RESP3 map into a map[K]V. A
// preceding attribute block is skipped.
type Map[K comparable, V any] struct {
	Pairs map[K]V

	attrSkip
	remaining  int64
	haveHeader bool
	haveKey    bool
	key        K
	setKey     func(*K, Node) error
	setValue   func(*V, Node) error
}

// NewMap returns a Map adapter that decodes keys with setKey and values
// with setValue, so K and V need not both satisfy ScalarValue (e.g. a
// map[string]string field-value reply and a map[string]float64
// score-by-member reply use the same setValue signature shape).
func NewMap[K comparable, V any](setKey func(*K, Node) error, setValue func(*V, Node) error) *Map[K, V] {
	return &Map[K, V]{setKey: setKey, setValue: setValue}
}

// Push implements Sink.
func (m *Map[K, V]) Push(n Node) error {
	if m.discard(n) {
		return nil
	}
	if !m.haveHeader {
		if n.DataType != TypeMap {
			return fmt.Errorf("%w: map adapter expects a map, got %q", ErrAdapterMismatch, n.DataType)
		}
		m.haveHeader = true
		m.remaining = 2 * n.Aggregate
		m.Pairs = make(map[K]V, n.Aggregate)
		return nil
	}
	if m.remaining == 0 {
		return fmt.Errorf("%w: unexpected trailing node after map", ErrAdapterMismatch)
	}
	if !m.haveKey {
		if err := m.setKey(&m.key, n); err != nil {
			return err
		}
		m.haveKey = true
		m.remaining--
		return nil
	}
	var v V
	if err := m.setValue(&v, n); err != nil {
		return err
	}
	m.Pairs[m.key] = v
	m.haveKey = false
	m.remaining--
	return nil
}

// ScalarMap is a Map[K, V] for the common case where both the key and the
// value type satisfy ScalarValue, e.g. HGETALL's field/value pairs.
func ScalarMap[K ComparableScalarValue, V ScalarValue]() *Map[K, V] {
	return NewMap[K, V](
		func(k *K, n Node) error { return setScalar(k, n) },
		func(v *V, n Node) error { return setScalar(v, n) },
	)
}

// ScalarOrSequence adapts a reply that may legally be returned either as a
// single scalar or as an array/set of scalars, without asserting which
// shape the server chose. LPOP with a COUNT argument, for example, can
// reply with either a bulk string or an array depending on server version
// and arguments.
type ScalarOrSequence[T ScalarValue] struct {
	Value    T
	Values   []T
	IsScalar bool

	attrSkip
	inner Sink
}

// Push implements Sink.
func (s *ScalarOrSequence[T]) Push(n Node) error {
	if s.discard(n) {
		return nil
	}
	if s.inner == nil {
		if n.DataType == TypeArray || n.DataType == TypeSet {
			seq := &Sequence[T]{}
			s.inner = seq
		} else {
			s.IsScalar = true
			s.inner = &Scalar[T]{}
		}
	}
	if err := s.inner.Push(n); err != nil {
		return err
	}
	switch inner := s.inner.(type) {
	case *Scalar[T]:
		s.Value = inner.Value
	case *Sequence[T]:
		s.Values = inner.Values
	}
	return nil
}

// CommandTag adapts an array-shaped reply whose first element names a
// command, such as a pub/sub push announcing "subscribe" or "message", into
// its command.Command tag. The remaining elements are collected as raw
// Nodes for the caller to decode further with whatever adapter fits that
// command's payload shape.
type CommandTag struct {
	Command command.Command
	Rest    []Node

	attrSkip
	haveHeader bool
	haveTag    bool
	remaining  int64
}

// Push implements Sink.
func (c *CommandTag) Push(n Node) error {
	if c.discard(n) {
		return nil
	}
	if !c.haveHeader {
		if n.DataType != TypeArray && n.DataType != TypePush && n.DataType != TypeSet {
			return fmt.Errorf("%w: command tag adapter expects an array-shaped reply, got %q", ErrAdapterMismatch, n.DataType)
		}
		c.haveHeader = true
		c.remaining = n.Aggregate
		c.Rest = make([]Node, 0, n.Aggregate)
		return nil
	}
	if !c.haveTag {
		tag, ok := command.Lookup(string(n.Value))
		if !ok {
			return fmt.Errorf("%w: unknown command tag %q", ErrAdapterMismatch, n.Value)
		}
		c.Command = tag
		c.haveTag = true
		c.remaining--
		return nil
	}
	if c.remaining == 0 {
		return fmt.Errorf("%w: unexpected trailing node after command tag reply", ErrAdapterMismatch)
	}
	c.Rest = append(c.Rest, n)
	c.remaining--
	return nil
}

// RawList collects every Node of a reply, including attribute and aggregate
// headers, in the order Parser produced them. It never returns an error and
// is useful for tests and for diagnostics.
type RawList struct {
	Nodes []Node
}

// Push implements Sink.
func (r *RawList) Push(n Node) error {
	r.Nodes = append(r.Nodes, n)
	return nil
}

// Reset clears r for reuse.
func (r *RawList) Reset() {
	r.Nodes = r.Nodes[:0]
}

// Ignore discards every Node it receives. It is used to drain a reply whose
// value the caller does not need, while still keeping the connection in
// sync.
type Ignore struct{}

// Push implements Sink.
func (Ignore) Push(Node) error { return nil }
