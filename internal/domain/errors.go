package domain

import "errors"

var (
	// ErrLookupMiss means the store has no entry for the identifier yet.
	// It triggers a creation and is never reported as a failure.
	ErrLookupMiss = errors.New("entry not found")

	// ErrCreationFailure wraps any rejection of a create call by the store.
	ErrCreationFailure = errors.New("creation failed")

	// ErrMissingRequiredAttribute means a natural-key field is absent.
	ErrMissingRequiredAttribute = errors.New("missing required attribute")

	// ErrUnrepresentableField is recorded when a value cannot be encoded.
	ErrUnrepresentableField = errors.New("unrepresentable field")

	ErrUnknownKind = errors.New("unknown entity kind")
)
