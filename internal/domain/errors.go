package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmountOverflow    = errors.New("amount exceeds currency range")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidPeriod     = errors.New("period must be greater than zero")
	ErrInvalidRate       = errors.New("rate must not be negative")
	ErrInvalidCategory   = errors.New("category is required")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountMismatch   = errors.New("account does not belong to record")
	ErrAlreadyClosed     = errors.New("already closed")
	ErrVersionConflict   = errors.New("optimistic lock conflict")
	ErrInvalidRequest    = errors.New("invalid request")
)
