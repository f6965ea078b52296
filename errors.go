package telnet

import "fmt"

// Code is a stable, wire-loggable error identifier (§6 error taxonomy).
type Code int

const (
	// CodeProtocolViolation is a generic RFC 854 violation or impossible
	// state transition. Recoverable: the parser returns to NORMAL.
	CodeProtocolViolation Code = iota + 1
	// CodeInternalError marks the stream unhealthy; the caller must
	// reconnect.
	CodeInternalError
	// CodeInvalidCommand is an unrecognized command byte after IAC.
	CodeInvalidCommand
	// CodeInvalidNegotiation is a command passed to a negotiation API that
	// is not WILL/WONT/DO/DONT.
	CodeInvalidNegotiation
	// CodeOptionNotAvailable covers an option that is unsupported,
	// unregistered, or rejected by its acceptability predicate.
	CodeOptionNotAvailable
	// CodeInvalidSubnegotiation is a malformed subnegotiation sequence, or
	// one received for an option that is not enabled.
	CodeInvalidSubnegotiation
	// CodeSubnegotiationOverflow means the payload exceeded
	// Descriptor.MaxSubnegBytes.
	CodeSubnegotiationOverflow
	// CodeUserHandlerForbidden is an attempt to register a handler for a
	// reserved option.
	CodeUserHandlerForbidden
	// CodeUserHandlerNotFound means no handler exists for the requested
	// option.
	CodeUserHandlerNotFound
	// CodeNegotiationQueueError means the queue bit was set while the peer
	// state was not WANTNO/WANTYES (invariant 2).
	CodeNegotiationQueueError
	// CodeNotEnoughMemory is an allocation failure.
	CodeNotEnoughMemory
)

func (c Code) String() string {
	switch c {
	case CodeProtocolViolation:
		return "protocol_violation"
	case CodeInternalError:
		return "internal_error"
	case CodeInvalidCommand:
		return "invalid_command"
	case CodeInvalidNegotiation:
		return "invalid_negotiation"
	case CodeOptionNotAvailable:
		return "option_not_available"
	case CodeInvalidSubnegotiation:
		return "invalid_subnegotiation"
	case CodeSubnegotiationOverflow:
		return "subnegotiation_overflow"
	case CodeUserHandlerForbidden:
		return "user_handler_forbidden"
	case CodeUserHandlerNotFound:
		return "user_handler_not_found"
	case CodeNegotiationQueueError:
		return "negotiation_queue_error"
	case CodeNotEnoughMemory:
		return "not_enough_memory"
	default:
		return "unknown"
	}
}

// Condition is the coarse condition code a Code maps to, for callers that
// want to reason across categories without a switch over every Code.
type Condition int

const (
	ConditionProtocolError Condition = iota
	ConditionMessageSize
	ConditionNotSupported
	ConditionStateNotRecoverable
	ConditionOperationNotPermitted
)

// Condition maps a Code to its coarse condition bucket (§7).
func (c Code) Condition() Condition {
	switch c {
	case CodeInvalidCommand, CodeInvalidNegotiation, CodeInvalidSubnegotiation, CodeProtocolViolation:
		return ConditionProtocolError
	case CodeSubnegotiationOverflow, CodeNotEnoughMemory:
		return ConditionMessageSize
	case CodeOptionNotAvailable, CodeUserHandlerNotFound:
		return ConditionNotSupported
	case CodeInternalError:
		return ConditionStateNotRecoverable
	case CodeUserHandlerForbidden, CodeNegotiationQueueError:
		return ConditionOperationNotPermitted
	default:
		return ConditionProtocolError
	}
}

// Error is the error type returned across every CORE API. It carries a
// stable Code for wire logging plus a human-readable message, and wraps an
// underlying cause when one exists so errors.Is/errors.As keep working.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an Error with no wrapped cause.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds an Error wrapping cause, for callers that need to carry
// an underlying transport/library error forward under a stable Code.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
