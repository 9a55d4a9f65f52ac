package a2a

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client-side failures so callers can tell a dead
// network apart from a misbehaving peer.
type ErrorKind string

const (
	// ErrorKindConfig covers invalid caller-supplied inputs.
	ErrorKindConfig ErrorKind = "configuration"

	// ErrorKindDiscovery covers agent card resolution failures.
	ErrorKindDiscovery ErrorKind = "discovery"

	// ErrorKindNetwork covers transport failures: connection refused,
	// timeouts, DNS. The request may never have reached the agent.
	ErrorKindNetwork ErrorKind = "network"

	// ErrorKindProtocol covers responses that reached us but do not form
	// a valid JSON-RPC envelope.
	ErrorKindProtocol ErrorKind = "protocol"

	// ErrorKindPayload covers structurally valid responses whose content
	// cannot be interpreted.
	ErrorKindPayload ErrorKind = "payload"
)

// Error is a classified A2A client error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the classification of err, or empty if err is not an
// a2a classified error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
