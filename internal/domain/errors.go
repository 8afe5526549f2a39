package domain

import "errors"

var (
	ErrUnauthorized          = errors.New("caller is not the operator")
	ErrWrapFailed            = errors.New("wrapping base asset failed")
	ErrUnwrapFailed          = errors.New("unwrapping base asset failed")
	ErrVenueDepositFailed    = errors.New("venue deposit failed")
	ErrVenueWithdrawFailed   = errors.New("venue withdrawal failed")
	ErrAllowanceGrantFailed  = errors.New("allowance grant failed")
	ErrDeadlineExceeded      = errors.New("swap deadline exceeded")
	ErrInsufficientUnwrapped = errors.New("unwrapped base balance below requested amount")
	ErrNoProfit              = errors.New("opportunity returned less than committed")
	ErrAckMissing            = errors.New("call succeeded without affirmative acknowledgment")
	ErrNotFound              = errors.New("not found")
	ErrLockHeld              = errors.New("lock already held")
)
