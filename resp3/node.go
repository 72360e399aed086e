package resp3

// Node is the unit produced by Parser while decoding one reply.
//
// A leaf node (simple string, error, number, double, big number, boolean,
// null, verbatim string, blob string/error or blob chunk) carries its raw
// payload in Value. An aggregate header (array, map, set, push, attribute)
// carries no Value; Aggregate holds its element count instead.
type Node struct {
	// DataType identifies the RESP3 wire type this node represents.
	//
	// A streamed blob string or error is represented as a TypeBlobString or
	// TypeBlobError header node with Chunked set, followed by zero or more
	// TypeBlobChunk leaves (the streamed_string_part nodes) and no explicit
	// terminator node - the empty closing chunk ends the stream without
	// being emitted itself.
	DataType Type

	// Aggregate is the element count carried by an aggregate header (array,
	// set, push) or the pair count for map and attribute headers, in which
	// case the number of child nodes that follow is 2*Aggregate. It is
	// always zero for leaves.
	Aggregate int64

	// Depth is 0 for the top-level node of a reply and increases by one for
	// every level of aggregate nesting.
	Depth int

	// Chunked marks an aggregate or blob string/error header that was
	// opened with a count-less marker (e.g. "*?" or "$?") and therefore
	// ends with an explicit terminator rather than a fixed child count.
	Chunked bool

	// Value holds the raw payload of a leaf node. Blob payloads are
	// binary-safe and may contain arbitrary bytes, including "\r\n". It is
	// nil for aggregate and attribute headers.
	Value []byte
}

// IsAggregateHeader reports whether n introduces a nested collection whose
// children follow it in the node stream (array, map, set, push or
// attribute).
func (n Node) IsAggregateHeader() bool {
	switch n.DataType {
	case TypeArray, TypeMap, TypeSet, TypePush, TypeAttribute:
		return true
	default:
		return false
	}
}

// ChildCount returns the number of child nodes that directly follow an
// aggregate header. It is 2*Aggregate for maps and attributes and Aggregate
// otherwise. Streamed (Chunked) aggregates have no fixed child count and
// ChildCount returns 0 for them.
func (n Node) ChildCount() int64 {
	if n.Chunked || !n.IsAggregateHeader() {
		return 0
	}
	if n.DataType == TypeMap || n.DataType == TypeAttribute {
		return 2 * n.Aggregate
	}
	return n.Aggregate
}
