package wallet

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrActivationFailed  = errors.New("ticket activation failed, balance restored")
	ErrAlreadyPaid       = errors.New("ticket already paid")
	ErrInvalidAmount     = errors.New("amount must be positive")
)
