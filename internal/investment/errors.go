package investment

import "errors"

var (
	// ErrNotFound is returned for missing positions and for positions
	// owned by another user, indistinguishably.
	ErrNotFound = errors.New("position not found")

	// ErrInvalidParameters is returned for malformed or out-of-range input.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInsufficientFunds is returned when the backing account cannot
	// cover the requested transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyConfirmed rejects a second confirmation of the same position.
	ErrAlreadyConfirmed = errors.New("position already confirmed")

	// ErrNotConfirmed is returned when a fund movement is attempted on a
	// position that was never confirmed.
	ErrNotConfirmed = errors.New("position not confirmed")

	// ErrLockedPeriod is returned for withdrawals attempted before half
	// of the position's declared duration has elapsed.
	ErrLockedPeriod = errors.New("position still in locked period")

	// ErrContributionNotDue signals the scheduler that the position is
	// already current on its periodic contributions.
	ErrContributionNotDue = errors.New("contribution not due")

	// ErrConflictingUpdate is returned when a unit of work kept losing to
	// concurrent mutations after bounded retries.
	ErrConflictingUpdate = errors.New("conflicting concurrent update")
)
