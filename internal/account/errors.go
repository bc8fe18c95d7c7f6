package account

import "errors"

var (
	// ErrNotFound is returned when an account does not exist or is not
	// owned by the requesting user. Ownership mismatches look identical
	// to missing rows so existence is not leaked.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidParameters is returned for malformed or out-of-range input.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInsufficientFunds is returned when a withdrawal would overdraw
	// the account.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflictingUpdate is returned when a unit of work kept losing to
	// concurrent mutations after bounded retries.
	ErrConflictingUpdate = errors.New("conflicting concurrent update")
)
