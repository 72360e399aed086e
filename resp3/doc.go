// Package resp3 implements a low-level codec for the Redis RESP3 wire protocol.
//
// Reader and Writer deal with the byte-level grammar: type markers, headers and
// terminators. Parser sits on top of Reader and turns one complete top-level
// reply (or push frame) into a flat, pre-order stream of Node values, following
// the aggregate nesting, attribute and streaming rules of RESP3. The adapters
// (Scalar, Sequence, Map, ScalarOrSequence, CommandTag, RawList, Ignore)
// implement Sink and convert that Node stream into caller-chosen Go values.
//
// Reader, Writer and ReadWriter can be reused via their Reset methods and duplex connections are supported using a
// ReadWriter type that wraps a Reader and a Writer in a single allocation.
//
// Methods that take []byte to write (e.g. WriteBlobString) are optimized to allow the compiler to avoid allocations
// when passing a string converted to a []byte as parameter (e.g. WriteBlobString([]byte("OK")) should not allocate).
package resp3
