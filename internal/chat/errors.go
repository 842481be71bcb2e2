package chat

import "errors"

// Sentinel errors surfaced to the user. None of them is fatal: every
// failure is recoverable at the next user action or sync pass.
var (
	// ErrNotFound means a search query resolved to no user profile.
	ErrNotFound = errors.New("user not found")
	// ErrSelfMessage means a search resolved to the current user.
	ErrSelfMessage = errors.New("you cannot message yourself")
)
