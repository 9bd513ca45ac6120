package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/usecase"
)

// RegisterUserRequest represents a request to register a user.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterUserRequest) ToUseCaseInput() usecase.RegisterUserInput {
	return usecase.RegisterUserInput{
		Username: r.Username,
		Password: r.Password,
	}
}

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	ID             string          `json:"id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.RegisterAccountInput {
	return usecase.RegisterAccountInput{
		ID:             r.ID,
		InitialBalance: r.InitialBalance,
	}
}

// CreateTransferRequest represents a request to move funds between accounts.
type CreateTransferRequest struct {
	SenderID   string          `json:"sender_id"`
	ReceiverID string          `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// AmountRequest carries the amount for deposits and withdrawals.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
