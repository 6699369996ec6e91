package ingest

import "errors"

// Validation failures surfaced to callers; the message is the wire contract.
var (
	ErrMissingKind = errors.New("kind required")
	ErrMissingFile = errors.New("file required")
)

// ErrUnauthorized is returned by the auth gate on a bad or missing token.
var ErrUnauthorized = errors.New("unauthorized")
