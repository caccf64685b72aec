package llm

import (
	"errors"
	"fmt"
)

// TransportError covers everything that stops a response from arriving:
// refused connections, DNS failures, timeouts and non-2xx statuses.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means a response arrived but its body was not in any
// expected structured shape.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsTransport reports whether err wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// TransportCause returns the error inside the first *TransportError in
// err's chain, or err itself when there is none or it has no cause.
func TransportCause(err error) error {
	var te *TransportError
	if errors.As(err, &te) && te.Err != nil {
		return te.Err
	}
	return err
}

// IsParse reports whether err wraps a *ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
