package model

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no usable credential bundle exists.
var ErrNotAuthenticated = errors.New("not authenticated: please log in first")

// ErrVehicleNotFound is returned when a requested vehicle id is not among the
// account's vehicles.
var ErrVehicleNotFound = errors.New("vehicle not found")

// AuthenticationError reports a failed password or OTP exchange. Err holds
// the underlying cause when the exchange never produced a usable response.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return "authentication failed: " + e.Err.Error()
	}
	return fmt.Sprintf("authentication failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TransportError reports a non-success HTTP status from any exchange.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("graphql request failed: status %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError reports a response that parsed but lacks the fields
// the caller needs.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Reason
}
