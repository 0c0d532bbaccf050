package chat

import (
	"errors"
)

type Code string

const (
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeUnsupportedModel Code = "UNSUPPORTED_MODEL"
	CodePersistence      Code = "PERSISTENCE_ERROR"
	CodeGeneration       Code = "GENERATION_ERROR"
)

// Error is the outward failure of a chat operation. Message is safe to show to
// clients; Err is the underlying cause and is only for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// CodeOf returns the chat error code carried by err, or "" if there is none.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
