// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates bad credentials or a missing/invalid/expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrStore indicates a database connectivity or query failure.
	ErrStore = errors.New("store failure")

	// ErrCrypto indicates a hashing or signing failure.
	ErrCrypto = errors.New("crypto failure")
)
