package engine

import "errors"

// Domain error taxonomy. Every violation aborts the whole deposit-handling
// unit with no partial state change; none of these are resolved by retrying
// with the same inputs.
var (
	ErrNotInitialized        = errors.New("engine not initialized")
	ErrAlreadyInitialized    = errors.New("engine already initialized")
	ErrConnectorNotFound     = errors.New("connector not found")
	ErrConnectorExists       = errors.New("connector already exists")
	ErrConnectorNotActivated = errors.New("connector not activated")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNoOverridePolicy      = errors.New("no override policy to delete")
)
