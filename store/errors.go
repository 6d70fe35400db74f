package store

import "errors"

// Dispatch failure kinds. Both are synchronous: the state tree stays
// untouched and no listener runs. Match with errors.Is.
var (
	// ErrInvalidActionShape reports a dispatched value that is neither
	// a plain action nor, when middleware is configured, a function
	// action.
	ErrInvalidActionShape = errors.New("action is neither a plain action nor a function")

	// ErrMissingActionType reports a plain action whose type
	// discriminator is empty or missing.
	ErrMissingActionType = errors.New("action has no type")
)
