package api

import (
	"errors"
	"fmt"
)

// TransportError covers network failures and timeouts: the request may
// never have reached the server. Cached data stays valid.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response, with the server's message when
// the body carried one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: server returned %d", e.Status)
}

// ValidationError is caught client-side before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("api: invalid %s: %s", e.Field, e.Reason)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
