package resp3_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/grafikrobot/boostorg.redis/resp3"
)

func parseAll(t *testing.T, wire string) []resp3.Node {
	t.Helper()
	rr := resp3.NewReader(strings.NewReader(wire))
	var p resp3.Parser
	var raw resp3.RawList
	if err := p.Parse(rr, &raw); err != nil {
		t.Fatalf("Parse(%q) failed: %s", wire, err)
	}
	return raw.Nodes
}

func checkEqual(t *testing.T, got, want []resp3.Node) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("node stream mismatch (-want +got):\n%s", diff)
	}
}

func TestParserLeaf(t *testing.T) {
	got := parseAll(t, "+OK\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeSimpleString, Depth: 0, Value: []byte("OK")},
	}
	checkEqual(t, got, want)
}

func TestParserBlobString(t *testing.T) {
	got := parseAll(t, "$5\r\nhello\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeBlobString, Depth: 0, Value: []byte("hello")},
	}
	checkEqual(t, got, want)
}

func TestParserArray(t *testing.T) {
	got := parseAll(t, "*3\r\n:1\r\n:2\r\n:3\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeArray, Aggregate: 3, Depth: 0},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("1")},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("2")},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("3")},
	}
	checkEqual(t, got, want)
}

func TestParserEmptyArray(t *testing.T) {
	got := parseAll(t, "*0\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeArray, Aggregate: 0, Depth: 0},
	}
	checkEqual(t, got, want)
}

func TestParserNestedArray(t *testing.T) {
	got := parseAll(t, "*2\r\n*2\r\n:1\r\n:2\r\n$1\r\nx\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeArray, Aggregate: 2, Depth: 0},
		{DataType: resp3.TypeArray, Aggregate: 2, Depth: 1},
		{DataType: resp3.TypeNumber, Depth: 2, Value: []byte("1")},
		{DataType: resp3.TypeNumber, Depth: 2, Value: []byte("2")},
		{DataType: resp3.TypeBlobString, Depth: 1, Value: []byte("x")},
	}
	checkEqual(t, got, want)
}

func TestParserMap(t *testing.T) {
	got := parseAll(t, "%2\r\n+field1\r\n:1\r\n+field2\r\n:2\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeMap, Aggregate: 2, Depth: 0},
		{DataType: resp3.TypeSimpleString, Depth: 1, Value: []byte("field1")},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("1")},
		{DataType: resp3.TypeSimpleString, Depth: 1, Value: []byte("field2")},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("2")},
	}
	checkEqual(t, got, want)
}

func TestParserPush(t *testing.T) {
	got := parseAll(t, ">2\r\n+message\r\n+hello\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypePush, Aggregate: 2, Depth: 0},
		{DataType: resp3.TypeSimpleString, Depth: 1, Value: []byte("message")},
		{DataType: resp3.TypeSimpleString, Depth: 1, Value: []byte("hello")},
	}
	checkEqual(t, got, want)
}

func TestParserAttributeDecoratesTopLevelReply(t *testing.T) {
	got := parseAll(t, "|1\r\n+key-popularity\r\n%1\r\n$1\r\na\r\n,0.1923\r\n*2\r\n:1\r\n:2\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeAttribute, Aggregate: 1, Depth: 0},
		{DataType: resp3.TypeSimpleString, Depth: 1, Value: []byte("key-popularity")},
		{DataType: resp3.TypeMap, Aggregate: 1, Depth: 1},
		{DataType: resp3.TypeBlobString, Depth: 2, Value: []byte("a")},
		{DataType: resp3.TypeDouble, Depth: 2, Value: []byte("0.1923")},
		{DataType: resp3.TypeArray, Aggregate: 2, Depth: 0},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("1")},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("2")},
	}
	checkEqual(t, got, want)
}

func TestParserAttributeInsideAggregate(t *testing.T) {
	got := parseAll(t, "*2\r\n:1\r\n|1\r\n+ttl\r\n:10\r\n:2\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeArray, Aggregate: 2, Depth: 0},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("1")},
		{DataType: resp3.TypeAttribute, Aggregate: 1, Depth: 1},
		{DataType: resp3.TypeSimpleString, Depth: 2, Value: []byte("ttl")},
		{DataType: resp3.TypeNumber, Depth: 2, Value: []byte("10")},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("2")},
	}
	checkEqual(t, got, want)
}

func TestParserStreamedString(t *testing.T) {
	got := parseAll(t, "$?\r\n;2\r\naa\r\n;3\r\nbbb\r\n;0\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeBlobString, Depth: 0, Chunked: true},
		{DataType: resp3.TypeBlobChunk, Depth: 1, Value: []byte("aa")},
		{DataType: resp3.TypeBlobChunk, Depth: 1, Value: []byte("bbb")},
	}
	checkEqual(t, got, want)
}

func TestParserStreamedArray(t *testing.T) {
	got := parseAll(t, "*?\r\n:1\r\n:2\r\n.\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeArray, Depth: 0, Chunked: true},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("1")},
		{DataType: resp3.TypeNumber, Depth: 1, Value: []byte("2")},
	}
	checkEqual(t, got, want)
}

func TestParserRESP2NullArray(t *testing.T) {
	got := parseAll(t, "*-1\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeNull, Depth: 0},
	}
	checkEqual(t, got, want)
}

func TestParserRESP2NullBlobString(t *testing.T) {
	got := parseAll(t, "$-1\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeNull, Depth: 0},
	}
	checkEqual(t, got, want)
}

func TestParserVerbatimString(t *testing.T) {
	got := parseAll(t, "=15\r\ntxt:Some string\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeVerbatimString, Depth: 0, Value: []byte("txt:Some string")},
	}
	checkEqual(t, got, want)
}

func TestParserBigNumber(t *testing.T) {
	got := parseAll(t, "(3492890328409238509324850943850943825024385\r\n")
	want := []resp3.Node{
		{DataType: resp3.TypeBigNumber, Depth: 0, Value: []byte("3492890328409238509324850943850943825024385")},
	}
	checkEqual(t, got, want)
}

func TestParserBoolean(t *testing.T) {
	// Parse decodes one reply per call, so the two booleans take two calls
	// on the same Reader.
	rr := resp3.NewReader(strings.NewReader("#t\r\n#f\r\n"))
	var p resp3.Parser
	var first, second resp3.RawList
	if err := p.Parse(rr, &first); err != nil {
		t.Fatalf("Parse of first reply failed: %s", err)
	}
	if err := p.Parse(rr, &second); err != nil {
		t.Fatalf("Parse of second reply failed: %s", err)
	}
	want := []resp3.Node{
		{DataType: resp3.TypeBoolean, Depth: 0, Value: []byte("t")},
	}
	checkEqual(t, first.Nodes, want)
	if len(second.Nodes) != 1 || second.Nodes[0].DataType != resp3.TypeBoolean || string(second.Nodes[0].Value) != "f" {
		t.Errorf("got %+v, expected boolean false", second.Nodes)
	}
}

func TestParserTruncatedArrayReturnsError(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader("*2\r\n:1\r\n"))
	var p resp3.Parser
	var raw resp3.RawList
	if err := p.Parse(rr, &raw); err == nil {
		t.Fatal("expected error reading a truncated array, got nil")
	}
}

type errSink struct {
	err   error
	nodes []resp3.Node
}

func (s *errSink) Push(n resp3.Node) error {
	s.nodes = append(s.nodes, n)
	return s.err
}

func TestParserSinkErrorDoesNotDesyncStream(t *testing.T) {
	sinkErr := errors.New("boom")
	rr := resp3.NewReader(strings.NewReader("*2\r\n:1\r\n:2\r\n+OK\r\n"))
	var p resp3.Parser

	sink := &errSink{err: sinkErr}
	if err := p.Parse(rr, sink); !errors.Is(err, sinkErr) {
		t.Fatalf("got error %v, expected %v", err, sinkErr)
	}
	if len(sink.nodes) != 3 {
		t.Fatalf("got %d nodes, expected 3", len(sink.nodes))
	}

	// The stream must still be positioned at the next reply.
	var raw resp3.RawList
	if err := p.Parse(rr, &raw); err != nil {
		t.Fatalf("Parse after sink error failed: %s", err)
	}
	checkEqual(t, raw.Nodes, []resp3.Node{
		{DataType: resp3.TypeSimpleString, Depth: 0, Value: []byte("OK")},
	})
}
