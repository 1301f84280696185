package workflow

import "errors"

var (
	// ErrNotAuthenticated blocks the Run transition when no session credential
	// is present. No network call is made.
	ErrNotAuthenticated = errors.New("missing session credential")

	// ErrIncompleteDefinition blocks the Run transition while any probe is empty.
	ErrIncompleteDefinition = errors.New("scan definition incomplete")

	// ErrInvalidTransition indicates an action that is not legal in the current phase.
	ErrInvalidTransition = errors.New("invalid workflow transition")
)
