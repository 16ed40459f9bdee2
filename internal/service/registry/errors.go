package registry

import "errors"

var (
	ErrNumberTaken          = errors.New("number already held by a live ticket")
	ErrInvalidNumber        = errors.New("number must be exactly 4 digits")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketExpired        = errors.New("ticket already expired")
	ErrNumberSpaceExhausted = errors.New("no free number found after bounded retries")
	ErrRateLimited          = errors.New("rate limited")
)
