package tildes

import (
	"errors"
	"fmt"
)

// ErrMissingToken is returned by every mutation attempted before an
// anti-forgery token was observed, no request is made in that case.
var ErrMissingToken = errors.New("tildes: missing anti-forgery token")

// TransportError is a network level failure of a single exchange.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tildes: %s: %s", e.Op, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExtractionError is returned when a required element or attribute is
// missing from a document.
type ExtractionError struct {
	Entity string
	Field  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("tildes: extract %s: missing %s", e.Entity, e.Field)
}

// StatusError is a mutation that the server answered with a status other
// than 200.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tildes: %s: unexpected status %d", e.Op, e.Code)
}

// LoginError is a rejected login or two factor attempt.
type LoginError struct {
	Code int
	// Message is the server's response when it is short enough to be a
	// human readable message.
	Message string
}

func (e *LoginError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tildes: login rejected with status %d", e.Code)
	}
	return fmt.Sprintf("tildes: login rejected with status %d: %s", e.Code, e.Message)
}
