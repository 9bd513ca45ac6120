package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a balance-holding row keyed by a caller-supplied identifier.
// Version increments on every successful balance mutation and is the basis
// for optimistic concurrency control: writers pass the version they read and
// lose when it moved underneath them.
type Account struct {
	ID             string
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanDebit reports whether debiting amount keeps the balance non-negative.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).Sign() >= 0
}

// ApplyDelta returns the balance after applying a signed delta.
func (a *Account) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(delta)
}

// NewAccount builds an account at its initial state, version zero.
func NewAccount(id string, initialBalance decimal.Decimal, now time.Time) (*Account, error) {
	if err := ValidateAccountID(id); err != nil {
		return nil, err
	}

	if initialBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	return &Account{
		ID:             id,
		Balance:        initialBalance,
		InitialBalance: initialBalance,
		Version:        0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
