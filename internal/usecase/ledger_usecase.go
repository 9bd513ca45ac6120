package usecase

import (
	"context"

	"github.com/shopspring/decimal"
)

// ConservationReport is the result of a ledger conservation check.
type ConservationReport struct {
	TotalBalance    decimal.Decimal
	ExpectedBalance decimal.Decimal
	Conserved       bool
}

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConservation verifies that the sum of all balances equals the sum of
// initial balances plus committed deposits minus committed withdrawals.
// Transfers move money between accounts and never change the total, so any
// deviation means a transfer was partially applied.
func (uc *LedgerUseCase) CheckConservation(ctx context.Context) (ConservationReport, error) {
	totals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return ConservationReport{}, err
	}

	expected := totals.TotalInitial.Add(totals.DepositTotal).Sub(totals.WithdrawalTotal)

	return ConservationReport{
		TotalBalance:    totals.TotalBalance,
		ExpectedBalance: expected,
		Conserved:       totals.TotalBalance.Equal(expected),
	}, nil
}
