package authflow

import "errors"

var (
	// ErrNotFound indicates the session id is unknown or has expired.
	ErrNotFound = errors.New("authflow: unknown session")

	// ErrAlreadyDelivered indicates a second delivery attempt for a session.
	ErrAlreadyDelivered = errors.New("authflow: token already delivered")

	// ErrPollTimeout indicates the wait for delivery exceeded its bound.
	ErrPollTimeout = errors.New("authflow: timed out waiting for token")

	// ErrStateMismatch indicates the redirect state did not match the handshake.
	ErrStateMismatch = errors.New("authflow: state parameter mismatch")

	// ErrExchangeFailed indicates the provider rejected the authorization code.
	ErrExchangeFailed = errors.New("authflow: code exchange failed")
)
