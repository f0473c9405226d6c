package wallets

import "errors"

var (
	ErrWalletNotFound = errors.New("wallet not found")
	// Message shape is part of the API contract for withdrawals.
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrInvalidOwnerType    = errors.New("invalid owner type")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
)
