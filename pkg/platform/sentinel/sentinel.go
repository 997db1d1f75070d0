// Package sentinel holds infrastructure sentinel errors. Stores and external
// collaborators (document store, identity provider, blob store) return these,
// optionally wrapped, so services can translate them into coded domain errors
// without depending on driver types.
package sentinel

import "errors"

var (
	// ErrNotFound: the document, account, or blob does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness constraint would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the entity is in the wrong state for the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: the remote store or provider cannot be reached right
	// now. Callers may retry; the core never does.
	ErrUnavailable = errors.New("unavailable")
)
