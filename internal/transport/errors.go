// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrLineTooLong indicates a line exceeded the configured cap.
	ErrLineTooLong = errors.New("stream line exceeds maximum size")

	// ErrNoBody indicates the response carried no body to stream.
	ErrNoBody = errors.New("response has no body")

	// ErrBadStatus indicates a non-success HTTP status.
	ErrBadStatus = errors.New("unexpected response status")

	// ErrNoEndpoint indicates the client was built without an endpoint.
	ErrNoEndpoint = errors.New("no endpoint configured")
)

// TransportError is a failure to obtain or read the event stream.
// It is always terminal for the run that produced it.
type TransportError struct {
	StatusCode int // HTTP status, zero if no response was received
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("transport: HTTP %d: %v: %s", e.StatusCode, e.Err, e.Body)
		}
		return fmt.Sprintf("transport: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
