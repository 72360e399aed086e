package resp3

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// ErrProtocolViolation is the sentinel wrapped by every ProtocolError value.
var ErrProtocolViolation = errors.New("resp3: protocol violation")

// ProtocolError reports a connection-ending violation detected above the
// byte grammar, such as a reply arriving with no in-flight command to match
// it against. Nodes holds whatever was decoded from the offending reply, so
// a caller logging the error gets the full shape of what confused it rather
// than just a one-line reason.
type ProtocolError struct {
	Reason string
	Nodes  []Node
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("resp3: %s\n%s", e.Reason, spew.Sdump(e.Nodes))
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocolViolation
}
