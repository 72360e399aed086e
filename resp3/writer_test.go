package resp3_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/grafikrobot/boostorg.redis/resp3"
)

func TestWriterWriteArrayHeader(t *testing.T) {
	var buf bytes.Buffer
	w := resp3.NewWriter(&buf)
	if err := w.WriteArrayHeader(3); err != nil {
		t.Fatalf("WriteArrayHeader failed: %s", err)
	}
	if got := buf.String(); got != "*3\r\n" {
		t.Errorf("got %q, expected %q", got, "*3\r\n")
	}
}

func TestWriterWriteArrayHeaderRejectsNegativeLength(t *testing.T) {
	var buf bytes.Buffer
	w := resp3.NewWriter(&buf)
	err := w.WriteArrayHeader(-1)
	if !errors.Is(err, resp3.ErrInvalidAggregateTypeLength) {
		t.Fatalf("got %v, expected ErrInvalidAggregateTypeLength", err)
	}
}

func TestWriterWriteBlobString(t *testing.T) {
	var buf bytes.Buffer
	w := resp3.NewWriter(&buf)
	if err := w.WriteBlobString([]byte("hello")); err != nil {
		t.Fatalf("WriteBlobString failed: %s", err)
	}
	if got := buf.String(); got != "$5\r\nhello\r\n" {
		t.Errorf("got %q, expected %q", got, "$5\r\nhello\r\n")
	}
}

func TestWriterWriteBlobStringEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := resp3.NewWriter(&buf)
	if err := w.WriteBlobString(nil); err != nil {
		t.Fatalf("WriteBlobString failed: %s", err)
	}
	if got := buf.String(); got != "$0\r\n\r\n" {
		t.Errorf("got %q, expected %q", got, "$0\r\n\r\n")
	}
}

func TestWriterEncodesFullCommandRequest(t *testing.T) {
	var buf bytes.Buffer
	w := resp3.NewWriter(&buf)
	if err := w.WriteArrayHeader(2); err != nil {
		t.Fatalf("WriteArrayHeader failed: %s", err)
	}
	if err := w.WriteBlobString([]byte("GET")); err != nil {
		t.Fatalf("WriteBlobString failed: %s", err)
	}
	if err := w.WriteBlobString([]byte("key")); err != nil {
		t.Fatalf("WriteBlobString failed: %s", err)
	}
	want := "*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, expected %q", got, want)
	}
}

func TestWriterResetSwitchesTarget(t *testing.T) {
	var first, second bytes.Buffer
	w := resp3.NewWriter(&first)
	w.Reset(&second)
	if err := w.WriteBlobString([]byte("x")); err != nil {
		t.Fatalf("WriteBlobString failed: %s", err)
	}
	if first.Len() != 0 {
		t.Errorf("got %q written to the original target, expected nothing", first.String())
	}
	if got := second.String(); got != "$1\r\nx\r\n" {
		t.Errorf("got %q, expected %q", got, "$1\r\nx\r\n")
	}
}
