package blizzard

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is a Blizzard protocol error code, aligned with JSON-RPC 2.0
// plus a vendor "user" code for handler-signalled failures.
type ErrorCode int

// Error code taxonomy (spec §7).
const (
	CodeUser           ErrorCode = -32000
	CodeParse          ErrorCode = -32700
	CodeInvalid        ErrorCode = -32600
	CodeMethodNotFound ErrorCode = -32601
	CodeInternal       ErrorCode = -32603
)

func (c ErrorCode) String() string {
	switch c {
	case CodeUser:
		return "user"
	case CodeParse:
		return "parse"
	case CodeInvalid:
		return "invalid"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeInternal:
		return "internal"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is the Go representation of a Blizzard error reply's {code, message}.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("blizzard: %s: %s", e.Code, e.Message)
}

// NewError builds an *Error, the shape sent on the wire in error replies.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// FatalError wraps a session-fatal error (spec §4.8: id=0 + INTERNAL).
// It always carries a stack trace via github.com/pkg/errors so a host
// logging it has something to act on.
type FatalError struct {
	cause error
}

func newFatalError(cause error) *FatalError {
	return &FatalError{cause: errors.WithStack(cause)}
}

func (f *FatalError) Error() string {
	return fmt.Sprintf("blizzard: fatal: %s", f.cause)
}

func (f *FatalError) Unwrap() error {
	return f.cause
}

// ErrTransportClosed is returned by frame writes attempted on a closed
// transport (spec §4.1: "Writes fail with TransportClosed").
var ErrTransportClosed = errors.New("blizzard: transport closed")

// ErrSessionClosed is returned by public Session operations attempted
// after End() or after the peer has closed the connection.
var ErrSessionClosed = errors.New("blizzard: session closed")

// ErrNotifyIDMustBeZero is a programmer error: Reply() with id==0.
var ErrNotifyIDMustBeZero = errors.New("blizzard: reply() requires a non-zero id")

// ErrMessageTooLarge is returned when a binary reassembly stream exceeds
// its configured cap (spec §4.3: "policy, not protocol").
var ErrMessageTooLarge = errors.New("blizzard: message too large")
