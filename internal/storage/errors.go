package storage

import "errors"

// Error kinds returned by the store. Callers match them with errors.Is; the
// wrapped message carries the offending profile name or file.
var (
	// ErrValidation reports a rejected input: blank or duplicate name, or
	// an empty import payload.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports an operation on a name absent from the store.
	ErrNotFound = errors.New("profile not found")
	// ErrSerialization reports text that could not be encoded or decoded.
	ErrSerialization = errors.New("serialization failed")
	// ErrIO reports a failure reading or writing the backing file.
	ErrIO = errors.New("storage I/O failed")
)
