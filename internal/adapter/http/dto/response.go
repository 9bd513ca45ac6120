package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// BalanceResponse represents a balance lookup.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// UserResponse represents a registered user.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// TransferResponse represents a transfer record in API responses.
type TransferResponse struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	SenderID      string          `json:"sender_id,omitempty"`
	ReceiverID    string          `json:"receiver_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// TransferFromDomain converts a transfer record to a response.
func TransferFromDomain(t *domain.TransferRecord) *TransferResponse {
	return &TransferResponse{
		ID:            t.ID,
		Kind:          string(t.Kind),
		SenderID:      t.SenderID,
		ReceiverID:    t.ReceiverID,
		Amount:        t.Amount,
		Status:        string(t.Status),
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}
}

// TransfersFromDomain converts transfer records to responses.
func TransfersFromDomain(records []*domain.TransferRecord) []*TransferResponse {
	result := make([]*TransferResponse, len(records))
	for i, t := range records {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// TransferResultResponse represents a settled transfer with the balances it
// produced.
type TransferResultResponse struct {
	Transfer        *TransferResponse `json:"transfer"`
	SenderBalance   decimal.Decimal   `json:"sender_balance"`
	ReceiverBalance decimal.Decimal   `json:"receiver_balance"`
}

// TransferResultFromUseCase converts an engine result to a response.
func TransferResultFromUseCase(r *usecase.TransferResult) *TransferResultResponse {
	return &TransferResultResponse{
		Transfer:        TransferFromDomain(r.Record),
		SenderBalance:   r.SenderBalance,
		ReceiverBalance: r.ReceiverBalance,
	}
}

// ConservationResponse reports the ledger conservation check.
type ConservationResponse struct {
	TotalBalance    decimal.Decimal `json:"total_balance"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	Conserved       bool            `json:"conserved"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
