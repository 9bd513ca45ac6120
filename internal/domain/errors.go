package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")

	// Transfer errors
	ErrInvalidTransfer   = errors.New("invalid transfer")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrVersionConflict   = errors.New("account version conflict")
	ErrContention        = errors.New("transfer aborted after repeated version conflicts")
	ErrTransferTimeout   = errors.New("transfer deadline exceeded")
	ErrTransferFailed    = errors.New("transfer failed after partial apply")
	ErrTransferNotFound  = errors.New("transfer not found")

	// User errors
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)
