package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountID = errors.New("invalid account identifier")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrPasswordTooWeak  = errors.New("password does not meet requirements")
)

// Validation constants
const (
	MaxAccountIDLength = 64
	MaxTransferAmount  = "1000000000000" // 1 trillion
	MinPasswordLength  = 8
	MaxPasswordLength  = 128
)

var accountIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateAccountID validates a caller-supplied account identifier.
func ValidateAccountID(id string) error {
	if id == "" || len(id) > MaxAccountIDLength {
		return ErrInvalidAccountID
	}

	if !accountIDRegex.MatchString(id) {
		return ErrInvalidAccountID
	}

	return nil
}

// ValidateUsername validates a username. Usernames share the account
// identifier character set since they name the user's account.
func ValidateUsername(username string) error {
	if err := ValidateAccountID(username); err != nil {
		return ErrInvalidUsername
	}

	return nil
}

// ValidateAmount validates a transfer, deposit or withdrawal amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidatePassword validates password strength.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	return nil
}

// ValidatePagination clamps pagination parameters to sane bounds.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 100
	const defaultPageSize = 20

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
