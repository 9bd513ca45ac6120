package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/domain"
)

// AccountUseCase handles account registration and lookups.
type AccountUseCase struct {
	accounts AccountStore
	log      TransferLog
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accounts AccountStore, log TransferLog) *AccountUseCase {
	return &AccountUseCase{
		accounts: accounts,
		log:      log,
	}
}

// RegisterAccountInput represents input for registering an account.
type RegisterAccountInput struct {
	ID             string
	InitialBalance decimal.Decimal
}

// RegisterAccount creates a new account with the caller-supplied identifier.
func (uc *AccountUseCase) RegisterAccount(ctx context.Context, input RegisterAccountInput) (*domain.Account, error) {
	account, err := domain.NewAccount(input.ID, input.InitialBalance, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := uc.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accounts.Get(ctx, id)
}

// GetBalance retrieves the current balance of an account.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.accounts.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.accounts.List(ctx, limit, offset)
}

// ListAccountTransfersInput represents input for listing an account's
// transfer records.
type ListAccountTransfersInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListAccountTransfers lists the transfer records touching an account.
func (uc *AccountUseCase) ListAccountTransfers(ctx context.Context, input ListAccountTransfersInput) ([]*domain.TransferRecord, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	if _, err := uc.accounts.Get(ctx, input.AccountID); err != nil {
		return nil, err
	}

	return uc.log.ListByAccount(ctx, input.AccountID, limit, offset)
}
