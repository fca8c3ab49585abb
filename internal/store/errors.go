package store

import "errors"

var (
	// ErrNotFound marks a missing referenced entity; route handlers map it
	// to a 404 (or a 401 when resolving a token's subject).
	ErrNotFound = errors.New("not found")

	// ErrDuplicate marks a uniqueness violation at the storage layer, for
	// example a duplicate email or the loser of a racing cart creation.
	ErrDuplicate = errors.New("duplicate")
)
