package upload

import "errors"

// Sentinel errors forming the upload failure taxonomy. Callers match them
// with errors.Is; HTTP handlers map them onto status codes.
var (
	// ErrUnauthorized — missing or invalid bearer credential. Terminal.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument — bad request shape, disallowed type, oversized file.
	// Terminal; the caller must fix its input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound — a confirmation referenced a key absent from storage.
	ErrNotFound = errors.New("not found")
	// ErrInternal — signing, storage, or persistence infrastructure failure.
	ErrInternal = errors.New("internal error")
)
