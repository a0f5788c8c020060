package account

import "errors"

var (
	ErrInactive            = errors.New("account is not active")
	ErrRestricted          = errors.New("account is restricted from debit transactions")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount (must be > 0)")
	ErrInvalidNumber       = errors.New("account number must be exactly 10 digits")
	ErrBelowMinimumBalance = errors.New("opening balance is below the minimum for this tier and currency")
	ErrNilTarget           = errors.New("transfer target account is required")
	ErrLienExceedsBalance  = errors.New("lien amount cannot exceed balance")
)
