// Package common defines shared constants and sentinel errors used across
// the wallet core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Session errors. ErrLocked is distinct from ErrorNotFound so callers
	// can prompt for the password instead of treating data as empty.
	ErrLocked         = errors.New("disconnected")
	ErrNotInitialized = errors.New("The wallet has not been initialized")
	ErrInitialized    = errors.New("wallet is already initialized")

	// Request errors.
	ErrInvalidRequest = errors.New("request body is undefined")
	ErrTimeout        = errors.New("timeout")

	// Validation errors.
	ErrWeakPassword = errors.New("password does not meet requirements")
	ErrUnknownChain = errors.New("unknown chain")
)
